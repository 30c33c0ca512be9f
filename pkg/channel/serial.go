package channel

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var (
	ErrNoDevice        = errors.New("no matching device")
	ErrAmbiguousDevice = errors.New("more than one matching device")
)

// PortInfo describes one serial port found on the host.
type PortInfo struct {
	Name    string
	Product string
	VID     string
	PID     string
	Serial  string
	USB     bool
}

// listPorts is replaced in tests.
var listPorts = enumerator.GetDetailedPortsList

// Ports lists the serial ports the host reports.
func Ports() ([]PortInfo, error) {
	details, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:    d.Name,
			Product: d.Product,
			VID:     d.VID,
			PID:     d.PID,
			Serial:  d.SerialNumber,
			USB:     d.IsUSB,
		})
	}
	return ports, nil
}

// Discover returns the one port whose USB product description equals
// product, ignoring case.
func Discover(product string) (string, error) {
	ports, err := Ports()
	if err != nil {
		return "", err
	}

	var found []string
	for _, p := range ports {
		if p.USB && strings.EqualFold(p.Product, product) {
			found = append(found, p.Name)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNoDevice, product)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %q on %s", ErrAmbiguousDevice, product, strings.Join(found, ", "))
	}
}

// OpenSerial opens name at baud 8N1 with blocking reads.
func OpenSerial(name string, baud int) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	return port, nil
}
