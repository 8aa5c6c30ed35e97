// Command devinfo prints the device electronic signature.
package main

import (
	"fmt"

	"stm32wl-hal/info"
)

func main() {
	setup()

	fmt.Printf("flash:    %d KiB (%d bytes)\n", info.FlashSizeKibibyte(), info.FlashSize())
	if p, err := info.ReadPackage(); err != nil {
		fmt.Println("package: ", err)
	} else {
		fmt.Println("package: ", p)
	}
	uid := info.ReadUID64()
	fmt.Println("uid64:   ", uid)
	fmt.Printf("dev_num:  %#08x\n", uid.DevNum())
	fmt.Printf("company:  %#06x\n", uid.CompanyID())
	fmt.Printf("dev_id:   %#02x\n", uid.DevID())
}
