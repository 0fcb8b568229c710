package credential

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PNG renders the payload as a QR code image suitable for email attachment.
func PNG(p Payload) ([]byte, error) {
	data, err := p.Marshal()
	if err != nil {
		return nil, fmt.Errorf("qr: marshal payload failed: %w", err)
	}
	img, err := qrcode.Encode(string(data), qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("qr: encode failed: %w", err)
	}
	return img, nil
}
