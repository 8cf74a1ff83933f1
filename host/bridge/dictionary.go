package bridge

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"plasmacut/protocol"
	"plasmacut/tinycompress"
)

// Command formats understood by the bridge firmware
const (
	fmtIdentify         = "identify offset=%u count=%c"
	fmtIdentifyResponse = "identify_response offset=%u data=%.*s"
	fmtConfigDigitalOut = "config_digital_out oid=%c pin=%u value=%c default_value=%c max_duration=%u"
	fmtUpdateDigitalOut = "update_digital_out oid=%c value=%c"
)

// Dictionary describes the commands a bridge accepts. It is fetched from
// the device at connect time, so ids are never hard-coded on the host
// beyond identify itself.
type Dictionary struct {
	Version       string            `json:"version"`
	BuildVersions string            `json:"build_versions"`
	Config        map[string]string `json:"config"`
	Commands      map[string]int    `json:"commands"`
	Responses     map[string]int    `json:"responses"`
}

// DefaultDictionary is the dictionary served by Device
func DefaultDictionary() *Dictionary {
	return &Dictionary{
		Version:       protocol.Version,
		BuildVersions: "go",
		Config: map[string]string{
			"MAX_OIDS": fmt.Sprint(maxOIDs),
		},
		Commands: map[string]int{
			fmtIdentify:         protocol.IdentifyID,
			fmtConfigDigitalOut: 2,
			fmtUpdateDigitalOut: 3,
		},
		Responses: map[string]int{
			fmtIdentifyResponse: protocol.IdentifyResponseID,
		},
	}
}

// CommandID looks a command up by its name (the first word of its format)
func (d *Dictionary) CommandID(name string) (uint32, bool) {
	for format, id := range d.Commands {
		if commandName(format) == name {
			return uint32(id), true
		}
	}
	return 0, false
}

// Encode returns the dictionary as compressed JSON
func (d *Dictionary) Encode() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return tinycompress.Compress(raw), nil
}

// ParseDictionary decodes a dictionary blob. zlib-compressed and plain
// JSON blobs are both accepted.
func ParseDictionary(blob []byte) (*Dictionary, error) {
	raw := blob
	if len(blob) >= 2 && blob[0] == 0x78 {
		r, err := zlib.NewReader(bytes.NewReader(blob))
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed dictionary: %w", err)
		}
		defer r.Close()
		if raw, err = io.ReadAll(r); err != nil {
			return nil, fmt.Errorf("failed to decompress dictionary: %w", err)
		}
	}

	d := &Dictionary{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dictionary: %w", err)
	}
	return d, nil
}

func commandName(format string) string {
	name, _, _ := strings.Cut(format, " ")
	return name
}
