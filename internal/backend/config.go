package backend

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec describes one backend in the pool file: a role and a host:port
// address. The position of a spec in the file defines the backend's index.
type Spec struct {
	Role Role   `yaml:"role"`
	Addr string `yaml:"addr"`
}

// poolFile is the on-disk shape of the backend list.
type poolFile struct {
	Backends []Spec `yaml:"backends"`
}

func (s Spec) validate() error {
	switch Role(strings.ToLower(string(s.Role))) {
	case RoleVideo, RoleMusic:
	default:
		return fmt.Errorf("unknown role %q (want %q or %q)", s.Role, RoleVideo, RoleMusic)
	}
	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		return fmt.Errorf("bad addr %q: %w", s.Addr, err)
	}
	return nil
}

// LoadSpecs reads the ordered backend list from a YAML file.
//
// The file looks like:
//
//	backends:
//	  - role: video
//	    addr: 192.168.0.101:80
//	  - role: music
//	    addr: 192.168.0.103:80
//
// Roles are case-insensitive in the file and normalized to lowercase.
func LoadSpecs(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backend pool: %w", err)
	}

	var f poolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse backend pool: %w", err)
	}
	if len(f.Backends) == 0 {
		return nil, fmt.Errorf("backend pool %s lists no backends", path)
	}

	for i := range f.Backends {
		f.Backends[i].Role = Role(strings.ToLower(string(f.Backends[i].Role)))
		if err := f.Backends[i].validate(); err != nil {
			return nil, fmt.Errorf("backend %d: %w", i, err)
		}
	}
	return f.Backends, nil
}
