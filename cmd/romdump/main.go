package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	agbrom "github.com/agbkit/agbrom"
	"github.com/agbkit/agbrom/codec"
	"github.com/agbkit/agbrom/event"
	"github.com/agbkit/agbrom/internal/config"
	"github.com/agbkit/agbrom/internal/logging"
	"github.com/agbkit/agbrom/schema"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// buildRegistry installs the built-in event model and then every schema file
// named by the config and flags.
func buildRegistry(cfg *config.Config, extra []string) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	if err := event.Register(reg); err != nil {
		return nil, err
	}
	for _, dir := range cfg.Schema.Dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := schema.LoadDir(reg, dir); err != nil {
			return nil, err
		}
	}
	for _, f := range append(cfg.Schema.Files, extra...) {
		if err := schema.LoadFile(reg, f); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func loadROM(path string) (*agbrom.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM %s: %w", path, err)
	}
	return agbrom.NewBuffer(data), nil
}

func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if c.Bool("verbose") {
		level = "debug"
	}
	codec.SetLogger(logging.New(level, cfg.Logging.LogFile))
	return cfg, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "romdump"
	app.Usage = "decode and inspect typed structures in GBA ROM images"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"ROMDUMP_CONFIG"},
			Usage:   "path to config file",
		},
		&cli.StringSliceFlag{
			Name:  "schema",
			Usage: "additional schema file to load",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "dump",
			Usage:     "Decode a typed structure at a ROM offset",
			ArgsUsage: "ROM",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "type",
					Usage: "type name to decode",
				},
				&cli.Uint64Flag{
					Name:  "offset",
					Usage: "ROM offset to decode at",
				},
				&cli.BoolFlag{
					Name:  "deep",
					Usage: "follow pointers into their targets",
					Value: true,
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				typeName := cfg.Decode.Type
				if c.IsSet("type") {
					typeName = c.String("type")
				}
				if typeName == "" {
					return cli.Exit("no type given, use --type", 1)
				}
				offset := cfg.Decode.Offset
				if c.IsSet("offset") {
					offset = uint32(c.Uint64("offset"))
				}
				deep := cfg.Decode.Deep
				if c.IsSet("deep") {
					deep = c.Bool("deep")
				}

				reg, err := buildRegistry(cfg, c.StringSlice("schema"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				rom, err := loadROM(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				var opts []codec.DecoderOption
				if deep {
					opts = append(opts, codec.WithDeepPointers(agbrom.CartridgeTranslator(rom)))
				}
				dec := codec.NewDecoder(reg, opts...)

				v, err := dec.Decode(typeName, rom, offset)
				if err != nil {
					return cli.Exit(err, 1)
				}
				fmt.Println(codec.Format(v))
				return nil
			},
		},
		{
			Name:      "size",
			Usage:     "Report how many bytes a typed structure occupies",
			ArgsUsage: "ROM",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "type",
					Usage:    "type name to measure",
					Required: true,
				},
				&cli.Uint64Flag{
					Name:  "offset",
					Usage: "ROM offset to measure at",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				reg, err := buildRegistry(cfg, c.StringSlice("schema"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				rom, err := loadROM(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				dec := codec.NewDecoder(reg)
				n, err := dec.DecodedSize(c.String("type"), rom, uint32(c.Uint64("offset")), nil)
				if err != nil {
					return cli.Exit(err, 1)
				}
				fmt.Printf("%d bytes\n", n)
				return nil
			},
		},
		{
			Name:  "check",
			Usage: "Load every schema file and validate the type graph",
			Action: func(c *cli.Context) error {
				cfg, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				reg, err := buildRegistry(cfg, c.StringSlice("schema"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				for _, name := range reg.Names() {
					fmt.Println(name)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
