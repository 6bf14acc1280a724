// Copyright 2026 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package msbuild

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/google/buildgen"
)

const uuidMapVersion = 1

var ErrUUIDVersion = eris.New("unsupported UUID map version")

// A UUIDMap keeps project identities stable across runs.  It is loaded once
// before generation and saved once after; only the names looked up in
// between are saved.
type UUIDMap struct {
	path   string
	stored map[string]uuid.UUID
	seen   map[string]uuid.UUID
}

type uuidMapFile struct {
	Version int               `json:"version"`
	Map     map[string]string `json:"map"`
}

// NewUUIDMap returns an empty map that saves to path.
func NewUUIDMap(path string) *UUIDMap {
	return &UUIDMap{
		path:   path,
		stored: make(map[string]uuid.UUID),
		seen:   make(map[string]uuid.UUID),
	}
}

// LoadUUIDMap reads the map stored at path.  A missing, unreadable or corrupt
// file yields an empty map; only a file written by a newer version of the
// format is an error.
func LoadUUIDMap(ctx context.Context, path string) (*UUIDMap, error) {
	m := NewUUIDMap(path)
	log := buildgen.Log(ctx)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	} else if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Ignoring unreadable UUID map")
		return m, nil
	}

	var f uuidMapFile
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Ignoring corrupt UUID map")
		return m, nil
	}
	if f.Version > uuidMapVersion {
		return nil, eris.Wrapf(ErrUUIDVersion, "%s has version %d, expected at most %d",
			path, f.Version, uuidMapVersion)
	}

	for name, s := range f.Map {
		id, err := uuid.Parse(s)
		if err != nil {
			log.Warn().Str("name", name).Str("uuid", s).Msg("Dropping invalid UUID")
			continue
		}
		m.stored[name] = id
	}
	return m, nil
}

// Get returns the UUID for name, assigning a new one if name was never seen
// before.
func (m *UUIDMap) Get(name string) uuid.UUID {
	if id, ok := m.seen[name]; ok {
		return id
	}
	id, ok := m.stored[name]
	if !ok {
		id = uuid.New()
	}
	m.seen[name] = id
	return id
}

// Names returns the names looked up so far, sorted.
func (m *UUIDMap) Names() []string {
	names := make([]string, 0, len(m.seen))
	for name := range m.seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the names looked up since loading to the map's file.
func (m *UUIDMap) Save() error {
	f := uuidMapFile{
		Version: uuidMapVersion,
		Map:     make(map[string]string, len(m.seen)),
	}
	for name, id := range m.seen {
		f.Map[name] = id.String()
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return eris.Wrap(err, "failed to encode UUID map")
	}
	return buildgen.WriteFileAtomic(m.path, append(data, '\n'))
}

// formatUUID formats id the way Visual Studio writes identifiers.
func formatUUID(id uuid.UUID) string {
	return "{" + strings.ToUpper(id.String()) + "}"
}
