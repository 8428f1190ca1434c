// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/alan-mat/copyscape/internal/config"
	"github.com/alan-mat/copyscape/internal/provider/copyscape"
	"github.com/alan-mat/copyscape/internal/ratelimit"
)

const (
	ProgramName   = "copyscape"
	Version       = "v0.1.0"
	RepositoryUrl = "github.com/alan-mat/copyscape"
)

type args struct {
	Config  string `arg:"--config,-c" default:"copyscape.yaml" help:"path to the config file"`
	Verbose bool   `arg:"--verbose,-v" help:"log every request"`

	Balance *balanceCmd `arg:"subcommand:balance" help:"show the searches left on the account"`
	URL     *urlCmd     `arg:"subcommand:url" help:"search for copies of a web page"`
	Text    *textCmd    `arg:"subcommand:text" help:"search for copies of a text"`
	Batch   *batchCmd   `arg:"subcommand:batch" help:"search for copies of many web pages"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", ProgramName, Version)
}

func (args) Epilogue() string {
	return fmt.Sprintf("Credentials can be set with %s and %s. For more information visit %s",
		config.EnvUsername, config.EnvAPIKey, RepositoryUrl)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env file: %v", err)
	}

	var args args
	p, err := arg.NewParser(arg.Config{Program: ProgramName}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])

	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	conf, err := config.Read(args.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	level, _ := conf.LogLevel()
	if args.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if conf.Path == "" {
		slog.Debug("config file not found, using defaults and environment", "path", args.Config)
	} else {
		slog.Debug("loaded config", "path", conf.Path)
	}

	cmd, ok := p.Subcommand().(command)
	if !ok {
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}

	limiter, closeLimiter, err := newLimiter(conf)
	if err != nil {
		log.Fatalf("failed to set up throttle: %v", err)
	}
	defer closeLimiter()

	timeout, _ := conf.TimeoutDuration()
	provider := copyscape.New(conf.Username, conf.APIKey,
		copyscape.WithEndpoint(conf.Endpoint),
		copyscape.WithTimeout(timeout),
		copyscape.WithUserAgent(conf.UserAgent),
		copyscape.WithLimiter(limiter),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := &runEnv{
		provider: provider,
		conf:     conf,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	if err := cmd.run(ctx, env); err != nil {
		slog.Error("command failed", "err", err)
		stop()
		closeLimiter()
		os.Exit(1)
	}
}

// newLimiter builds the throttle named in the config. The returned func
// releases whatever the limiter holds.
func newLimiter(conf *config.Config) (ratelimit.Limiter, func() error, error) {
	interval, err := conf.ThrottleInterval()
	if err != nil {
		return nil, nil, err
	}

	switch conf.Throttle.Backend {
	case config.ThrottleBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.Throttle.Redis.Addr,
			Username: conf.Throttle.Redis.Username,
			Password: conf.Throttle.Redis.Password,
			DB:       conf.Throttle.Redis.DB,
		})
		slog.Debug("using redis throttle", "addr", conf.Throttle.Redis.Addr, "key", conf.Throttle.Redis.Key)
		return ratelimit.NewRedisLimiter(rdb, conf.Throttle.Redis.Key, interval), rdb.Close, nil

	default:
		noop := func() error { return nil }
		if interval == ratelimit.Interval {
			return ratelimit.Process(), noop, nil
		}
		return ratelimit.New(interval), noop, nil
	}
}
