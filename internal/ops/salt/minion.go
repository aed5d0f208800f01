package salt

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/serviceinfo/serviceinfo/internal/ops/env"
)

// MinionConfig is the content of /etc/salt/minion
type MinionConfig struct {
	Master        string              `yaml:"master"`
	Output        string              `yaml:"output"`
	Grains        Grains              `yaml:"grains"`
	MineFunctions map[string][]string `yaml:"mine_functions"`
}

// Grains tag a minion with its environment and roles
type Grains struct {
	Environment string   `yaml:"environment"`
	Roles       []string `yaml:"roles"`
}

// RenderMinionConfig renders the minion configuration of host. The master itself
// talks to its own salt-master over localhost.
func RenderMinionConfig(e *env.Environment, host string, roles []string) ([]byte, error) {
	master := e.Master
	if host == e.Master {
		master = "localhost"
	}

	cfg := MinionConfig{
		Master: master,
		Output: "mixed",
		Grains: Grains{
			Environment: e.Name,
			Roles:       append([]string{}, roles...),
		},
		MineFunctions: map[string][]string{
			"network.interfaces": {},
			"network.ip_addrs":   {},
		},
	}
	return marshal(cfg)
}

// AddRoleToConfig appends role to grains.roles of a minion configuration, keeping
// every other key as it is
func AddRoleToConfig(data []byte, role string) ([]byte, error) {
	if err := ValidateRoles(role); err != nil {
		return nil, err
	}

	cfg := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid minion configuration: %w", err)
	}

	grains := map[string]interface{}{}
	if raw, ok := cfg["grains"]; ok && raw != nil {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid minion configuration: grains is a %T, not a mapping", raw)
		}
		grains = m
	}

	var existing []interface{}
	if raw, ok := grains["roles"]; ok && raw != nil {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid minion configuration: grains.roles is a %T, not a list", raw)
		}
		existing = list
	}

	roles := make([]string, 0, len(existing)+1)
	for _, r := range existing {
		name := fmt.Sprint(r)
		if name == role {
			return nil, fmt.Errorf("%s: %w", role, ErrRoleExists)
		}
		roles = append(roles, name)
	}
	roles = append(roles, role)

	grains["roles"] = roles
	cfg["grains"] = grains
	return marshal(cfg)
}

func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
