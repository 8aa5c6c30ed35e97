// Command gpio-rgbled cycles the Generic Node RGB LED: red, green and blue
// turn on one after another, then off again.
package main

import (
	"fmt"
	"time"

	"stm32wl-hal/board"
	"stm32wl-hal/cs"
	"stm32wl-hal/gpio"
	"stm32wl-hal/rcc"
)

const step = 600 * time.Millisecond

func main() {
	dp := setup()
	clocks := rcc.New(dp.RCC, dp.FLASH, dp.PWR)
	pb := gpio.SplitB(dp.GPIOB, clocks)

	var led *board.RGB
	cs.With(func(tok *cs.Token) { led = board.NewRGB(pb, tok) })

	fmt.Println("gpio-rgbled: starting on", board.GenericNode.Name)
	for n := 0; cycles == 0 || n < cycles; n++ {
		for _, l := range []gpio.Level{gpio.High, gpio.Low} {
			for _, ch := range []*gpio.Output{led.Red, led.Green, led.Blue} {
				ch.Set(l)
				fmt.Println(ch.String(), l.String())
				time.Sleep(step / speedup)
			}
		}
	}
}
