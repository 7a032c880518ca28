package services

import (
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"outline-tg-bot/internal/constants"
)

// QRService renders access keys as scannable QR codes.
// The Outline client auto-detects ss:// URLs from camera input, so issued
// keys are sent as both text and image.
type QRService struct {
	logger *logrus.Logger
}

// NewQRService creates a new QR code service
func NewQRService(logger *logrus.Logger) *QRService {
	return &QRService{
		logger: logger,
	}
}

// GenerateQR renders the given access URL as a PNG QR code
func (s *QRService) GenerateQR(accessURL string) ([]byte, error) {
	png, err := qrcode.Encode(accessURL, qrcode.Medium, constants.QRCodeSize)
	if err != nil {
		s.logger.Errorf("Failed to generate QR code: %v", err)
		return nil, err
	}

	s.logger.Debugf("Generated %d-byte QR code for access key", len(png))
	return png, nil
}
