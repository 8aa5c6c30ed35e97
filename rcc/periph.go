package rcc

import "stm32wl-hal/pac"

// Periph names a peripheral with a clock enable and reset bit.
type Periph uint8

const (
	GPIOA Periph = iota
	GPIOB
	GPIOC
	GPIOH
	I2C1
	I2C2
	I2C3

	numPeriph
)

type gate struct {
	name string
	enr  uintptr
	rstr uintptr
	bit  uint32
}

var gates = [numPeriph]gate{
	GPIOA: {"GPIOA", pac.RCC_AHB2ENR, pac.RCC_AHB2RSTR, pac.RCC_AHB2ENR_GPIOAEN},
	GPIOB: {"GPIOB", pac.RCC_AHB2ENR, pac.RCC_AHB2RSTR, pac.RCC_AHB2ENR_GPIOBEN},
	GPIOC: {"GPIOC", pac.RCC_AHB2ENR, pac.RCC_AHB2RSTR, pac.RCC_AHB2ENR_GPIOCEN},
	GPIOH: {"GPIOH", pac.RCC_AHB2ENR, pac.RCC_AHB2RSTR, pac.RCC_AHB2ENR_GPIOHEN},
	I2C1:  {"I2C1", pac.RCC_APB1ENR1, pac.RCC_APB1RSTR1, pac.RCC_APB1ENR1_I2C1EN},
	I2C2:  {"I2C2", pac.RCC_APB1ENR1, pac.RCC_APB1RSTR1, pac.RCC_APB1ENR1_I2C2EN},
	I2C3:  {"I2C3", pac.RCC_APB1ENR1, pac.RCC_APB1RSTR1, pac.RCC_APB1ENR1_I2C3EN},
}

func (p Periph) String() string {
	if p >= numPeriph {
		return "unknown"
	}
	return gates[p].name
}

// I2CClockSource selects the I2C kernel clock.
type I2CClockSource uint8

const (
	I2CClockPCLK   I2CClockSource = 0 // reset value
	I2CClockSYSCLK I2CClockSource = 1
	I2CClockHSI16  I2CClockSource = 2
)

func i2cSelPos(p Periph) (uint8, bool) {
	switch p {
	case I2C1:
		return pac.RCC_CCIPR_I2C1SEL_Pos, true
	case I2C2:
		return pac.RCC_CCIPR_I2C2SEL_Pos, true
	case I2C3:
		return pac.RCC_CCIPR_I2C3SEL_Pos, true
	}
	return 0, false
}
