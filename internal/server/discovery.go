package server

import (
	"fmt"
	"net"
	"strconv"

	"github.com/skip2/go-qrcode"
)

// probeAddr is dialed over UDP to learn which local interface routes to the
// outside. UDP dial sends no packets.
const probeAddr = "8.8.8.8:80"

// LocalIP returns the address of the interface used for outbound traffic.
func LocalIP() (string, error) {
	conn, err := net.Dial("udp", probeAddr)
	if err != nil {
		return "", fmt.Errorf("discover local address: %w", err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return "", fmt.Errorf("discover local address: unexpected %v", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}

// AdvertisedURL builds the URL clients on the local network should open.
// An empty host falls back to LocalIP, then to localhost.
func AdvertisedURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		ip, err := LocalIP()
		if err != nil {
			ip = "localhost"
		}
		host = ip
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/"
}

// TerminalQR renders url as a QR code made of half-block characters.
func TerminalQR(url string) (string, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("generate QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}

// PNGQR renders url as a PNG QR code of the given pixel size.
func PNGQR(url string, size int) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}
	return png, nil
}
