package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"strings"

	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// SecurityConfig is the broker authentication shared by producers and
// consumers.
type SecurityConfig struct {
	SASLEnabled   bool   `mapstructure:"sasl_enabled"`
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	TLSCAPath     string `mapstructure:"tls_ca_path"`
}

// Validate checks that enabled mechanisms have what they need.
func (c SecurityConfig) Validate() error {
	if c.SASLEnabled {
		if c.SASLMechanism == "" {
			return errors.New(errors.ErrCodeValidation, "kafka: sasl_mechanism required")
		}
		if c.SASLUsername == "" || c.SASLPassword == "" {
			return errors.New(errors.ErrCodeValidation, "kafka: sasl credentials required")
		}
	}
	return nil
}

func (c SecurityConfig) tlsConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.TLSCAPath == "" {
		return cfg, nil
	}
	pem, err := os.ReadFile(c.TLSCAPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueue, "kafka: read tls ca")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New(errors.ErrCodeMessageQueue, "kafka: tls ca contains no certificates")
	}
	cfg.RootCAs = pool
	return cfg, nil
}

func (c SecurityConfig) mechanism() (sasl.Mechanism, error) {
	if !c.SASLEnabled {
		return nil, nil
	}
	var (
		mech sasl.Mechanism
		err  error
	)
	switch strings.ToUpper(c.SASLMechanism) {
	case "PLAIN":
		mech = plain.Mechanism{Username: c.SASLUsername, Password: c.SASLPassword}
	case "SCRAM-SHA-256":
		mech, err = scram.Mechanism(scram.SHA256, c.SASLUsername, c.SASLPassword)
	case "SCRAM-SHA-512":
		mech, err = scram.Mechanism(scram.SHA512, c.SASLUsername, c.SASLPassword)
	default:
		return nil, errors.New(errors.ErrCodeValidation, "kafka: unsupported sasl mechanism "+c.SASLMechanism)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueue, "kafka: create sasl mechanism")
	}
	return mech, nil
}

//Personal.AI order the ending
