package config

import (
	"encoding/xml"
	"strings"

	log "github.com/cihub/seelog"
)

type outputs struct {
	FormatID string `xml:"formatid,attr"`
	Console  string `xml:",innerxml"`
}

type format struct {
	ID     string `xml:"id,attr"`
	Format string `xml:"format,attr"`
}

type formats struct {
	Format format `xml:"format"`
}

type seelog struct {
	Outputs  outputs `xml:"outputs,omitempty"`
	Formats  formats `xml:"formats,omitempty"`
	LogLevel string  `xml:"minlevel,attr"`
}

func newSeelogConfig() seelog {
	// The client logs to the host application's console only; file
	// handling is the host's business.
	return seelog{
		Outputs: outputs{"common", "<console />"},
		Formats: formats{
			format{
				ID:     "common",
				Format: "%Date %Time %LEVEL (%File:%Line) - %Msg%n",
			},
		},
		LogLevel: "info",
	}
}

// NewLoggerLevel sets the global log level of the client.
func NewLoggerLevel(level string) error {
	cfg := newSeelogConfig()
	ll, ok := log.LogLevelFromString(strings.ToLower(level))
	if !ok {
		ll = log.InfoLvl
	}
	cfg.LogLevel = ll.String()

	logger, err := log.LoggerFromConfigAsString(cfg.String())
	if err != nil {
		return err
	}
	log.ReplaceLogger(logger)
	return nil
}

func (s seelog) String() string {
	b, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}
