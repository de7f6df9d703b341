// Package sura holds the flow catalogue and run orchestration for the Sura
// customer portal.
package sura

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/TeoEchavarria/sura-automatization-reschedule/flow"
)

// LoginURL is the SSO entry point for the customer portal.
const LoginURL = "https://login.sura.com/sso/servicelogin.aspx?continueTo=https%3A%2F%2Fsucursal.segurossura.com.co&service=clienteseguros"

// Flow parameter names used by the embedded definitions.
const (
	ParamDocumentType = "document_type"
	ParamDocument     = "document"
	ParamPIN          = "pin"
)

//go:embed flows/*.yaml
var flowFS embed.FS

// LoadFlow parses one of the embedded flow definitions by file name.
func LoadFlow(name string) (*flow.Definition, error) {
	data, err := flowFS.ReadFile("flows/" + name)
	if err != nil {
		return nil, fmt.Errorf("embedded flow %s: %w", name, err)
	}
	return flow.Parse(data)
}

// LoginFlow returns the portal authentication flow.
func LoginFlow() (*flow.Definition, error) { return LoadFlow("login.yaml") }

// AppointmentsFlow returns the pending-appointments flow.
func AppointmentsFlow() (*flow.Definition, error) { return LoadFlow("appointments.yaml") }

// RescheduleFlow returns the reschedule-tab flow.
func RescheduleFlow() (*flow.Definition, error) { return LoadFlow("reschedule.yaml") }

// Config carries credentials and browser settings for a run.
type Config struct {
	// DocumentType is the portal's document type code; "C" is cédula.
	DocumentType   string
	DocumentNumber string
	// KeypadPIN is the numeric password typed on the virtual keypad.
	KeypadPIN   string
	Headless    bool
	DownloadDir string
}

// Validate rejects configs that cannot authenticate.
func (c Config) Validate() error {
	if c.DocumentNumber == "" {
		return fmt.Errorf("document number is required (set CC)")
	}
	if c.KeypadPIN == "" {
		return fmt.Errorf("keypad PIN is required (set PASSWORD)")
	}
	for _, r := range c.KeypadPIN {
		if r < '0' || r > '9' {
			return fmt.Errorf("keypad PIN must be numeric")
		}
	}
	return nil
}

// params maps the config onto the flow parameter names.
func (c Config) params() map[string]string {
	docType := c.DocumentType
	if docType == "" {
		docType = "C"
	}
	return map[string]string{
		ParamDocumentType: docType,
		ParamDocument:     c.DocumentNumber,
		ParamPIN:          c.KeypadPIN,
	}
}

// ConfigFromEnv builds a Config from environment variables. CC and PASSWORD
// follow the portal's credential naming; HEADLESS defaults to true.
func ConfigFromEnv() Config {
	headless := true
	if v := os.Getenv("HEADLESS"); v != "" {
		headless = strings.EqualFold(v, "true") || v == "1"
	}
	downloadDir := os.Getenv("DOWNLOAD_DIR")
	if downloadDir == "" {
		downloadDir = "./downloads"
	}
	return Config{
		DocumentType:   os.Getenv("SURA_DOCUMENT_TYPE"),
		DocumentNumber: os.Getenv("CC"),
		KeypadPIN:      os.Getenv("PASSWORD"),
		Headless:       headless,
		DownloadDir:    downloadDir,
	}
}
