package channel

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/zrna-research/zrna-go/pkg/transport"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// InitHost loads the periph host drivers once per process.
func InitHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// I2CRegister is a single-register I2C target. Every byte is its own
// transaction.
type I2CRegister struct {
	dev *i2c.Dev
}

// NewI2CRegister addresses addr on bus.
func NewI2CRegister(bus i2c.Bus, addr uint16) *I2CRegister {
	return &I2CRegister{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// WriteByte writes b to the register.
func (r *I2CRegister) WriteByte(b byte) error {
	return r.dev.Tx([]byte{b}, nil)
}

// ReadByte reads one byte from the register.
func (r *I2CRegister) ReadByte() (byte, error) {
	var buf [1]byte
	if err := r.dev.Tx(nil, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// OpenI2C opens the named bus. An empty name opens the first bus.
func OpenI2C(name string, addr uint16) (*I2CRegister, i2c.BusCloser, error) {
	if err := InitHost(); err != nil {
		return nil, nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open i2c %q: %w", name, err)
	}
	return NewI2CRegister(bus, addr), bus, nil
}

// SPIBus drives the polled link over a full-duplex SPI connection.
type SPIBus struct {
	conn spi.Conn
}

// NewSPIBus wraps a connected SPI conn.
func NewSPIBus(conn spi.Conn) *SPIBus {
	return &SPIBus{conn: conn}
}

// Transfer clocks w out and returns the bytes clocked in.
func (b *SPIBus) Transfer(w []byte) ([]byte, error) {
	r := make([]byte, len(w))
	if err := b.conn.Tx(w, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Write clocks p out and discards the input.
func (b *SPIBus) Write(p []byte) error {
	_, err := b.Transfer(p)
	return err
}

// Read clocks in n bytes while sending zeros.
func (b *SPIBus) Read(n int) ([]byte, error) {
	return b.Transfer(make([]byte, n))
}

// OpenSPI opens the named port in mode 0 with 8-bit words.
func OpenSPI(name string, speed physic.Frequency) (*SPIBus, spi.PortCloser, error) {
	if err := InitHost(); err != nil {
		return nil, nil, fmt.Errorf("init host: %w", err)
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open spi %q: %w", name, err)
	}
	conn, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("connect spi %q: %w", name, err)
	}
	return NewSPIBus(conn), port, nil
}

// BusNames lists the I2C and SPI buses periph registered.
func BusNames() (i2cNames, spiNames []string, err error) {
	if err := InitHost(); err != nil {
		return nil, nil, fmt.Errorf("init host: %w", err)
	}
	for _, ref := range i2creg.All() {
		i2cNames = append(i2cNames, ref.Name)
	}
	for _, ref := range spireg.All() {
		spiNames = append(spiNames, ref.Name)
	}
	return i2cNames, spiNames, nil
}

var (
	_ transport.RegisterDevice = (*I2CRegister)(nil)
	_ transport.BusConn        = (*SPIBus)(nil)
)
