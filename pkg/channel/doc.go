// Package channel opens the physical links a zrna device is reachable on
// and pairs each with its frame exchanger.
//
//	stream    USB CDC or UART serial port (go.bug.st/serial)
//	register  I2C target at address 0x15 (periph.io/x/conn/v3/i2c)
//	polled    SPI without a ready line (periph.io/x/conn/v3/spi)
//
// I2C and SPI need the periph host drivers; Open calls InitHost for them.
// Open has the connection.OpenFunc shape once bound to a config.Config.
package channel
