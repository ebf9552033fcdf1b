package qrcode

import (
	"encoding/base64"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// PNG renders content as a PNG QR code with medium error correction.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultSize
	}

	png, err := goqrcode.Encode(content, goqrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	return png, nil
}

// DataURL is PNG wrapped as a data: URL ready for an <img> src.
func DataURL(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ControlURL is the link a phone opens to become a controller.
func ControlURL(frontendOrigin, roomId, controlMasterKey string) string {
	return fmt.Sprintf("%s/control/%s?token=%s", frontendOrigin, roomId, controlMasterKey)
}
