package hostreq

import (
	"io"
	"time"

	"github.com/ansel1/merry"
	"gopkg.in/yaml.v3"
)

// Defaults holds request settings loaded from a YAML document:
//
//     baseURL: https://api.example.com
//     method: get
//     timeout: 10s
//     responseType: json
//     headers:
//       Accept: application/json
//
// Defaults implements Option.  Zero fields leave the Config untouched.
type Defaults struct {
	BaseURL      string            `yaml:"baseURL"`
	Method       string            `yaml:"method"`
	Timeout      time.Duration     `yaml:"timeout"`
	ResponseType ResponseType      `yaml:"responseType"`
	Headers      map[string]string `yaml:"headers"`
	// AcceptStatus, when set, restricts fulfilled responses to these codes.
	AcceptStatus []int `yaml:"acceptStatus"`
}

// LoadDefaults decodes Defaults from YAML.  An empty document yields
// zero Defaults.
func LoadDefaults(r io.Reader) (*Defaults, error) {
	d := &Defaults{}
	err := yaml.NewDecoder(r).Decode(d)
	if err != nil && err != io.EOF {
		return nil, merry.Prepend(err, "decoding defaults")
	}
	return d, nil
}

// Apply implements Option.
func (d *Defaults) Apply(c *Config) error {
	if d.BaseURL != "" {
		c.BaseURL = d.BaseURL
	}
	if d.Method != "" {
		c.Method = d.Method
	}
	if d.Timeout != 0 {
		if err := Timeout(d.Timeout).Apply(c); err != nil {
			return err
		}
	}
	if d.ResponseType != "" {
		if err := Responses(d.ResponseType).Apply(c); err != nil {
			return err
		}
	}
	for k, v := range d.Headers {
		c.Headers().Set(k, v)
	}
	if len(d.AcceptStatus) > 0 {
		c.ValidateStatus = ExpectCode(d.AcceptStatus...)
	}
	return nil
}
