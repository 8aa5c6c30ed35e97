package pac

// Peripheral base addresses (RM0453).
const (
	RCC_BASE   uintptr = 0x5800_0000
	PWR_BASE   uintptr = 0x5800_0400
	FLASH_BASE uintptr = 0x5800_4000

	GPIOA_BASE uintptr = 0x4800_0000
	GPIOB_BASE uintptr = 0x4800_0400
	GPIOC_BASE uintptr = 0x4800_0800
	GPIOH_BASE uintptr = 0x4800_1C00

	I2C1_BASE uintptr = 0x4000_5400
	I2C2_BASE uintptr = 0x4000_5800
	I2C3_BASE uintptr = 0x4000_5C00

	// Factory-programmed information block.
	FLASHSIZE_ADDR uintptr = 0x1FFF_75E0 // 16-bit, KiB
	PACKAGE_ADDR   uintptr = 0x1FFF_7500 // 16-bit, low 4 bits
	UID64_ADDR     uintptr = 0x1FFF_7580 // high word, low word at +4

	// Size of each peripheral register window.
	BLOCK_SIZE uintptr = 0x400
)

// RCC register offsets and fields.
const (
	RCC_CR        uintptr = 0x000
	RCC_ICSCR     uintptr = 0x004
	RCC_CFGR      uintptr = 0x008
	RCC_AHB2RSTR  uintptr = 0x02C
	RCC_APB1RSTR1 uintptr = 0x038
	RCC_AHB2ENR   uintptr = 0x04C
	RCC_APB1ENR1  uintptr = 0x058
	RCC_CCIPR     uintptr = 0x088

	RCC_CR_MSION          = 1 << 0
	RCC_CR_MSIRDY         = 1 << 1
	RCC_CR_MSIRGSEL       = 1 << 3
	RCC_CR_MSIRANGE_Pos   = 4
	RCC_CR_MSIRANGE_Msk   = 0xF
	RCC_CR_HSION          = 1 << 8
	RCC_CR_HSIRDY         = 1 << 10
	RCC_CFGR_SW_Pos       = 0
	RCC_CFGR_SW_Msk       = 0x3
	RCC_CFGR_SWS_Pos      = 2
	RCC_CFGR_SWS_Msk      = 0x3
	RCC_CFGR_HPRE_Pos     = 4
	RCC_CFGR_HPRE_Msk     = 0xF
	RCC_CFGR_PPRE1_Pos    = 8
	RCC_CFGR_PPRE1_Msk    = 0x7
	RCC_CFGR_PPRE2_Pos    = 11
	RCC_CFGR_PPRE2_Msk    = 0x7
	RCC_CFGR_SW_MSI       = 0
	RCC_CFGR_SW_HSI16     = 1
	RCC_CCIPR_I2C1SEL_Pos = 12
	RCC_CCIPR_I2C2SEL_Pos = 14
	RCC_CCIPR_I2C3SEL_Pos = 16
	RCC_CCIPR_I2CSEL_Msk  = 0x3

	RCC_AHB2ENR_GPIOAEN = 1 << 0
	RCC_AHB2ENR_GPIOBEN = 1 << 1
	RCC_AHB2ENR_GPIOCEN = 1 << 2
	RCC_AHB2ENR_GPIOHEN = 1 << 7
	RCC_APB1ENR1_I2C1EN = 1 << 21
	RCC_APB1ENR1_I2C2EN = 1 << 22
	RCC_APB1ENR1_I2C3EN = 1 << 23
)

// PWR register offsets and fields.
const (
	PWR_CR1 uintptr = 0x00
	PWR_SR2 uintptr = 0x14

	PWR_CR1_VOS_Pos = 9
	PWR_CR1_VOS_Msk = 0x3
	PWR_CR1_VOS_R1  = 1 // 1.2 V, up to 48 MHz
	PWR_CR1_VOS_R2  = 2 // 1.0 V, up to 16 MHz
	PWR_SR2_VOSF    = 1 << 10
)

// FLASH register offsets and fields.
const (
	FLASH_ACR uintptr = 0x00

	FLASH_ACR_LATENCY_Msk = 0x7
)

// GPIO register offsets.
const (
	GPIO_MODER   uintptr = 0x00
	GPIO_OTYPER  uintptr = 0x04
	GPIO_OSPEEDR uintptr = 0x08
	GPIO_PUPDR   uintptr = 0x0C
	GPIO_IDR     uintptr = 0x10
	GPIO_ODR     uintptr = 0x14
	GPIO_BSRR    uintptr = 0x18
	GPIO_AFRL    uintptr = 0x20
	GPIO_AFRH    uintptr = 0x24
	GPIO_BRR     uintptr = 0x28
)

// I2C register offsets and fields.
const (
	I2C_CR1      uintptr = 0x00
	I2C_CR2      uintptr = 0x04
	I2C_OAR1     uintptr = 0x08
	I2C_TIMINGR  uintptr = 0x10
	I2C_TIMEOUTR uintptr = 0x14
	I2C_ISR      uintptr = 0x18
	I2C_ICR      uintptr = 0x1C
	I2C_RXDR     uintptr = 0x24
	I2C_TXDR     uintptr = 0x28

	I2C_CR1_PE        = 1 << 0
	I2C_CR1_ANFOFF    = 1 << 12
	I2C_CR1_NOSTRETCH = 1 << 17

	I2C_CR2_SADD_Msk   = 0x3FF
	I2C_CR2_RD_WRN     = 1 << 10
	I2C_CR2_START      = 1 << 13
	I2C_CR2_STOP       = 1 << 14
	I2C_CR2_NACK       = 1 << 15
	I2C_CR2_NBYTES_Pos = 16
	I2C_CR2_NBYTES_Msk = 0xFF
	I2C_CR2_RELOAD     = 1 << 24
	I2C_CR2_AUTOEND    = 1 << 25

	I2C_TIMINGR_PRESC_Pos  = 28
	I2C_TIMINGR_SCLDEL_Pos = 20
	I2C_TIMINGR_SDADEL_Pos = 16
	I2C_TIMINGR_SCLH_Pos   = 8
	I2C_TIMINGR_SCLL_Pos   = 0

	I2C_ISR_TXE    = 1 << 0
	I2C_ISR_TXIS   = 1 << 1
	I2C_ISR_RXNE   = 1 << 2
	I2C_ISR_NACKF  = 1 << 4
	I2C_ISR_STOPF  = 1 << 5
	I2C_ISR_TC     = 1 << 6
	I2C_ISR_TCR    = 1 << 7
	I2C_ISR_BERR   = 1 << 8
	I2C_ISR_ARLO   = 1 << 9
	I2C_ISR_OVR    = 1 << 10
	I2C_ISR_BUSY   = 1 << 15
	I2C_ICR_NACKCF = 1 << 4
	I2C_ICR_STOPCF = 1 << 5
	I2C_ICR_BERRCF = 1 << 8
	I2C_ICR_ARLOCF = 1 << 9
	I2C_ICR_OVRCF  = 1 << 10
)
