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

package buildgen

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type logKey struct{}

var nopLogger = zerolog.Nop()

// Log returns the logger attached to ctx, or a disabled logger.
func Log(ctx context.Context) *zerolog.Logger {
	logger, ok := ctx.Value(logKey{}).(*zerolog.Logger)
	if !ok {
		return &nopLogger
	}
	return logger
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

// outFilePermissions is filtered through the umask when a file is created.
const outFilePermissions = 0666

// WriteFileAtomic replaces filename with data.  The data is written to a
// temporary file in the same directory first and renamed over filename, so
// readers never see a partial file.  A replaced file keeps its permissions.
func WriteFileAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", dir)
	}

	tmpName := filepath.Join(dir, "."+filepath.Base(filename)+".tmp"+uuid.NewString())
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, outFilePermissions)
	if err != nil {
		return eris.Wrapf(err, "failed to create temporary file for %s", filename)
	}

	_, err = tmp.Write(data)
	if info, statErr := os.Stat(filename); err == nil && statErr == nil && info.Mode().IsRegular() {
		err = tmp.Chmod(info.Mode().Perm())
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "failed to write %s", filename)
	}

	err = os.Rename(tmpName, filename)
	if err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "failed to replace %s", filename)
	}
	return nil
}

// An Output is one file produced by a backend.
type Output struct {
	Name string // Relative to the build directory.
	Data []byte
}

// WriteOutputs writes every output into env.BuildDir.  Backends collect all
// their outputs before calling it so that a rendering error leaves the build
// directory untouched.
func WriteOutputs(ctx context.Context, env *Env, outputs []Output) error {
	for _, out := range outputs {
		filename := env.BuildPath(out.Name)
		err := WriteFileAtomic(filename, out.Data)
		if err != nil {
			return err
		}
		Log(ctx).Info().Str("path", filename).Msgf("Wrote %s", out.Name)
	}
	return nil
}
