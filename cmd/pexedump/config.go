package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"sigs.k8s.io/yaml"

	"github.com/wippyai/pexe/dump"
)

// config is the optional -config file. YAML and JSON are read with the
// same decoder; a .toml extension selects TOML.
type config struct {
	BlockNames       map[string]string            `json:"blockNames" toml:"blockNames"`
	RecordNames      map[string]map[string]string `json:"recordNames" toml:"recordNames"`
	Format           string                       `json:"format" toml:"format"`
	MaxDepth         int                          `json:"maxDepth" toml:"maxDepth"`
	MaxValues        int                          `json:"maxValues" toml:"maxValues"`
	Verbose          bool                         `json:"verbose" toml:"verbose"`
	CheckBlockLength bool                         `json:"checkBlockLength" toml:"checkBlockLength"`
	ShowText         bool                         `json:"showText" toml:"showText"`
}

const (
	formatText = "text"
	formatJSON = "json"
	formatCBOR = "cbor"
)

func loadConfig(path string) (config, error) {
	var c config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse error in %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return c, c.validate()
}

func (c config) validate() error {
	switch c.Format {
	case "", formatText, formatJSON, formatCBOR:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("maxDepth must not be negative")
	}
	_, err := c.names()
	return err
}

// names converts the string-keyed tables of the file into dump.Names.
func (c config) names() (dump.Names, error) {
	n := dump.Names{
		Blocks:  make(map[uint32]string, len(c.BlockNames)),
		Records: make(map[uint32]map[uint32]string, len(c.RecordNames)),
	}
	for key, name := range c.BlockNames {
		id, err := parseID(key)
		if err != nil {
			return n, fmt.Errorf("blockNames: %w", err)
		}
		n.Blocks[id] = name
	}
	for key, codes := range c.RecordNames {
		id, err := parseID(key)
		if err != nil {
			return n, fmt.Errorf("recordNames: %w", err)
		}
		m := make(map[uint32]string, len(codes))
		for ckey, name := range codes {
			code, err := parseID(ckey)
			if err != nil {
				return n, fmt.Errorf("recordNames[%s]: %w", key, err)
			}
			m[code] = name
		}
		n.Records[id] = m
	}
	return n, nil
}

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint32(v), nil
}
