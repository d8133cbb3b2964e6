package causal

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed mechanisms.yaml
var mechanismFS embed.FS

// KnownMechanism is one curated domain fact linking a driver keyword to
// a response keyword with an expected direction and typical lag.
type KnownMechanism struct {
	Driver            string `json:"driver" yaml:"driver"`
	Response          string `json:"response" yaml:"response"`
	Mechanism         string `json:"mechanism" yaml:"mechanism"`
	ExpectedDirection string `json:"expectedDirection" yaml:"expectedDirection"`
	TypicalLag        int    `json:"typicalLag" yaml:"typicalLag"`
}

type mechanismFile struct {
	Mechanisms []KnownMechanism `yaml:"mechanisms"`
}

// LoadMechanisms parses the embedded mechanism table
func LoadMechanisms() ([]KnownMechanism, error) {
	raw, err := mechanismFS.ReadFile("mechanisms.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read mechanism table: %w", err)
	}
	return parseMechanisms(raw)
}

// LoadMechanismsFromFile parses a mechanism table from an external YAML
// file, replacing the embedded defaults.
func LoadMechanismsFromFile(path string) ([]KnownMechanism, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mechanism table %s: %w", path, err)
	}
	return parseMechanisms(raw)
}

func parseMechanisms(raw []byte) ([]KnownMechanism, error) {
	var file mechanismFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mechanism table: %w", err)
	}
	if len(file.Mechanisms) == 0 {
		return nil, fmt.Errorf("mechanism table is empty")
	}
	return file.Mechanisms, nil
}

// MustLoadMechanisms loads the embedded table or panics. The table ships
// inside the binary, so a failure here is a build defect, not a runtime
// condition.
func MustLoadMechanisms() []KnownMechanism {
	mechanisms, err := LoadMechanisms()
	if err != nil {
		panic(err)
	}
	return mechanisms
}

// FindMechanism looks up the first mechanism whose driver and response
// keywords both appear (case-insensitive) in the given series names.
func FindMechanism(mechanisms []KnownMechanism, driverName, responseName string) (KnownMechanism, bool) {
	driver := strings.ToLower(driverName)
	response := strings.ToLower(responseName)

	for _, m := range mechanisms {
		if strings.Contains(driver, strings.ToLower(m.Driver)) &&
			strings.Contains(response, strings.ToLower(m.Response)) {
			return m, true
		}
	}
	return KnownMechanism{}, false
}
