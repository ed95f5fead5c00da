package dul

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/codeninja55/go-dimse/dimse/pdu"
)

// Config holds the local endpoint parameters of an association.
type Config struct {
	// CallingAETitle identifies the local application entity.
	CallingAETitle string `validate:"required,min=1,max=16"`
	// CalledAETitle identifies the remote application entity.
	CalledAETitle string `validate:"required,min=1,max=16"`
	// MaxPDULength is the maximum PDU length offered during negotiation.
	// Zero selects pdu.DefaultMaxPDULength.
	MaxPDULength uint32 `validate:"omitempty,gte=18,lte=16777215"`
	// ApplicationContext defaults to the standard DICOM application context.
	ApplicationContext string `validate:"omitempty,max=64"`
	// ImplementationClassUID defaults to this implementation's UID.
	ImplementationClassUID string `validate:"omitempty,max=64"`
	// ImplementationVersion defaults to this implementation's version name.
	ImplementationVersion string `validate:"omitempty,max=16"`
	// ReadTimeout and WriteTimeout are validated but not applied to the
	// connection; transport deadlines are set with
	// Connection.SetReadDeadline and Connection.SetWriteDeadline.
	ReadTimeout  time.Duration `validate:"gte=0"`
	WriteTimeout time.Duration `validate:"gte=0"`
}

const (
	defaultApplicationContext     = "1.2.840.10008.3.1.1.1"
	defaultImplementationClassUID = "1.2.840.12345.1.1"
	defaultImplementationVersion  = "GO-DIMSE_1.0"
)

var validate = validator.New()

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid association config: %w", err)
	}
	return nil
}

// withDefaults returns a copy of the config with zero values filled in.
func (c Config) withDefaults() Config {
	if c.MaxPDULength == 0 {
		c.MaxPDULength = pdu.DefaultMaxPDULength
	}
	if c.ApplicationContext == "" {
		c.ApplicationContext = defaultApplicationContext
	}
	if c.ImplementationClassUID == "" {
		c.ImplementationClassUID = defaultImplementationClassUID
	}
	if c.ImplementationVersion == "" {
		c.ImplementationVersion = defaultImplementationVersion
	}
	return c
}
