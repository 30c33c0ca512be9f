package channel

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/zrna-research/zrna-go/pkg/config"
	"github.com/zrna-research/zrna-go/pkg/connection"
	"github.com/zrna-research/zrna-go/pkg/transport"
)

// Open opens the link cfg selects. A stream link without a port is found by
// its USB product description.
func Open(_ context.Context, cfg *config.Config) (*connection.Link, error) {
	switch cfg.Transport {
	case config.KindStream:
		name := cfg.Serial.Port
		if name == "" {
			var err error
			if name, err = Discover(cfg.Serial.Product); err != nil {
				return nil, err
			}
		}
		port, err := OpenSerial(name, cfg.Serial.BaudRate)
		if err != nil {
			return nil, err
		}
		return &connection.Link{
			Exchanger: transport.NewStream(port, cfg.StreamConfig()),
			Closer:    port,
			Port:      name,
		}, nil

	case config.KindRegister:
		reg, bus, err := OpenI2C(cfg.I2C.Bus, cfg.I2C.Address)
		if err != nil {
			return nil, err
		}
		return &connection.Link{
			Exchanger: transport.NewRegister(reg, cfg.RegisterConfig()),
			Closer:    bus,
			Port:      fmt.Sprintf("%s@%#x", bus, cfg.I2C.Address),
		}, nil

	case config.KindPolled:
		spiBus, port, err := OpenSPI(cfg.SPI.Port, physic.Frequency(cfg.SPI.SpeedHz)*physic.Hertz)
		if err != nil {
			return nil, err
		}
		return &connection.Link{
			Exchanger: transport.NewPolled(spiBus, cfg.PollConfig()),
			Closer:    port,
			Port:      port.String(),
		}, nil
	}
	return nil, fmt.Errorf("%w: transport %q", config.ErrInvalid, cfg.Transport)
}

// Opener binds cfg for a connection.Manager.
func Opener(cfg *config.Config) connection.OpenFunc {
	return func(ctx context.Context) (*connection.Link, error) {
		return Open(ctx, cfg)
	}
}
