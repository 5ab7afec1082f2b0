// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package server

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds preview-server settings, read from the environment.
// The serve command layers the project file underneath: an explicit
// ERD_* variable always wins.
type Config struct {
	Addr         string `env:"ERD_ADDR" env-default:"127.0.0.1:5435"`
	Env          string `env:"ERD_ENV" env-default:"local"`
	AllowOrigins string `env:"ERD_ALLOW_ORIGINS" env-default:"*"`
}

// ReadConfig builds the config from the environment.
func ReadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
