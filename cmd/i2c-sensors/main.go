// Command i2c-sensors talks to the Generic Node sensors on I2C1: it checks
// the LIS2DH12 accelerometer's WHO_AM_I and reads the SHTC3.
package main

import (
	"fmt"
	"time"

	"tinygo.org/x/drivers/lis3dh"
	tinyshtc3 "tinygo.org/x/drivers/shtc3"

	"stm32wl-hal/board"
	"stm32wl-hal/cs"
	"stm32wl-hal/drivers/shtc3"
	"stm32wl-hal/gpio"
	"stm32wl-hal/rcc"
	"stm32wl-hal/x/logx"
)

const (
	whoAmI     = 0x0F
	lis2dh12ID = 0x33
)

func main() {
	dp := setup()
	clocks := rcc.New(dp.RCC, dp.FLASH, dp.PWR)
	pa := gpio.SplitA(dp.GPIOA, clocks)
	pb := gpio.SplitB(dp.GPIOB, clocks)

	sensors, err := cs.Do(func(tok *cs.Token) (*board.Sensors, error) {
		if err := clocks.SetSysclkMSIMax(tok); err != nil {
			return nil, err
		}
		return board.OpenSensors(dp.I2C1, pa, pb, clocks, tok)
	})
	if err != nil {
		logx.Error(logx.ComponentBoard, "sensor bus", "err", err)
		return
	}
	// LIS2DH12 needs 5 ms after power-up, the SHTC3 240 us.
	time.Sleep(5 * time.Millisecond)
	bus := sensors.Bus

	var who [1]byte
	switch err := bus.WriteRead(lis3dh.Address1, []byte{whoAmI}, who[:]); {
	case err != nil:
		fmt.Println("lis2dh12:", err)
	case who[0] != lis2dh12ID:
		fmt.Printf("lis2dh12: unexpected WHO_AM_I %#02x\n", who[0])
	default:
		fmt.Printf("lis2dh12: WHO_AM_I %#02x\n", who[0])
	}
	acc := lis3dh.New(bus)
	acc.Address = lis3dh.Address1
	fmt.Println("lis2dh12: connected", acc.Connected())

	th := shtc3.New(bus)
	if err := th.Configure(); err != nil {
		fmt.Println("shtc3:", err)
	} else if id, err := th.ID(); err != nil {
		fmt.Println("shtc3:", err)
	} else {
		fmt.Printf("shtc3: id %#04x\n", id)
	}
	// The tinygo driver measures with clock stretching and skips the CRC.
	stretched := tinyshtc3.New(bus)

	for n := 0; cycles == 0 || n < cycles; n++ {
		if s, err := th.Read(); err != nil {
			fmt.Println("shtc3:", err)
		} else {
			t := s.MilliCelsius()
			rh := s.DeciRelHumidity()
			fmt.Printf("shtc3: %d.%03d C  %d.%d %%RH\n", t/1000, abs(t%1000), rh/10, rh%10)
		}
		if t, rh, err := stretched.ReadTemperatureHumidity(); err == nil {
			fmt.Printf("shtc3 (stretched): %d mC  %d c%%RH\n", t, rh)
		}
		time.Sleep(time.Second / speedup)
	}

	cs.With(func(tok *cs.Token) { sensors.Close(tok) })
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
