// Package wol sends Wake-on-LAN magic packets. The TV cannot be reached
// over its control protocol while in a low-power state, so power-on
// starts with a connectionless wake signal to its physical address.
package wol

import (
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"
)

// Sender transmits magic packets for one device.
type Sender struct {
	mac    net.HardwareAddr
	ip     string
	logger *zap.Logger
}

// NewSender creates a sender for the device with the given MAC and IPv4
// address. The IP is used to derive the subnet broadcast address.
func NewSender(mac, ip string, logger *zap.Logger) (*Sender, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("invalid MAC address %q: %w", mac, err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("expected 6-byte MAC address, got %d bytes", len(hw))
	}

	return &Sender{mac: hw, ip: ip, logger: logger}, nil
}

// MagicPacket builds the 102-byte wake payload: six 0xFF bytes followed
// by the MAC repeated sixteen times.
func MagicPacket(mac net.HardwareAddr) []byte {
	packet := make([]byte, 0, 102)
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, mac...)
	}
	return packet
}

// Wake sends the magic packet to the subnet broadcast address and to
// the device IP directly. Delivery is fire-and-forget; the protocol has
// no acknowledgment, so a nil return means only that the packets were
// transmitted.
func (s *Sender) Wake() error {
	packet := MagicPacket(s.mac)

	targets := []string{s.ip}
	if broadcast := subnetBroadcast(s.ip); broadcast != "" {
		targets = append([]string{broadcast}, targets...)
	}

	var lastErr error
	sent := 0
	for _, target := range targets {
		if err := sendUDP(target, packet); err != nil {
			lastErr = err
			s.logger.Debug("Wake packet send failed",
				zap.String("target", target),
				zap.Error(err))
			continue
		}
		sent++
	}

	if sent == 0 {
		return fmt.Errorf("failed to send wake packet: %w", lastErr)
	}

	s.logger.Info("Wake signal sent",
		zap.String("mac", s.mac.String()),
		zap.Int("targets", sent))
	return nil
}

// subnetBroadcast derives the /24 broadcast address the way the device
// network is normally laid out (192.168.1.x -> 192.168.1.255).
func subnetBroadcast(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ""
	}
	return strings.Join(parts[:3], ".") + ".255"
}

func sendUDP(ip string, packet []byte) error {
	conn, err := net.Dial("udp", net.JoinHostPort(ip, "9"))
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		return err
	}
	return nil
}
