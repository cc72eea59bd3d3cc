package main

import (
	"io/ioutil"
	"log"
	"os"

	"github.com/bodgit/convicon"
	"github.com/bodgit/convicon/artifact"
	"github.com/bodgit/convicon/compress"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newConverter(c *cli.Context) *convicon.Converter {
	converter := convicon.New(newLogger(c))
	// Progress dots only make sense to a human watching
	converter.SetProgress(term.IsTerminal(int(os.Stderr.Fd())))
	return converter
}

func options(c *cli.Context) (artifact.Format, compress.Mode, error) {
	format, err := artifact.ParseFormat(c.String("format"))
	if err != nil {
		return artifact.Invalid, compress.Invalid, err
	}

	mode, err := compress.ParseMode(c.String("compress"))
	if err != nil {
		return artifact.Invalid, compress.Invalid, err
	}

	return format, mode, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "convicon"
	app.Usage = "TI-84 Plus CE program icon converter"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	formatFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			EnvVars: []string{"CONVICON_FORMAT"},
			Value:   artifact.Assembly.String(),
			Usage:   "output format, asm or ice",
		},
		&cli.StringFlag{
			Name:    "compress",
			Aliases: []string{"c"},
			EnvVars: []string{"CONVICON_COMPRESS"},
			Value:   compress.None.String(),
			Usage:   "compression, none, zx7 or zx0",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert a single icon",
			Description: "Without an image the output still marks the program as having no icon",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:    "image",
					Aliases: []string{"i"},
					Usage:   "path to icon image",
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Usage:    "path to output file",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "description",
					Aliases: []string{"d"},
					Usage:   "program description",
				},
			}, formatFlags...),
			Action: func(c *cli.Context) error {
				format, mode, err := options(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				icon := convicon.Icon{
					Image:       c.String("image"),
					Output:      c.String("output"),
					Format:      format,
					Compression: mode,
					Description: c.String("description"),
				}

				if err := newConverter(c).Convert(icon); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Convert every image in a directory tree",
			Description: "Each image is converted into a file alongside it",
			ArgsUsage:   "DIRECTORY",
			Flags:       formatFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				format, mode, err := options(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				opts := convicon.ScanOptions{
					Format:      format,
					Compression: mode,
				}

				if err := newConverter(c).Scan(c.Args().First(), opts); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
