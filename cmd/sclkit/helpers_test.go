// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sclkit/sclkit/internal/config"
	"github.com/sclkit/sclkit/internal/sclxml"
	"github.com/sclkit/sclkit/internal/testutil"
)

const stationSCD = `<?xml version="1.0" encoding="UTF-8"?>
<SCL xmlns="http://www.iec.ch/61850/2003/SCL" xmlns:dev="` + sclxml.DevNamespace + `" version="2007" revision="B" release="5">
	<Substation dev:id="sub" name="S1">
		<VoltageLevel dev:id="vl" name="V1">
			<Bay dev:id="bay" name="B1">
				<Function dev:id="f1" name="Protection">
					<LNode dev:id="f1-ln" lnClass="PTOC" lnType="LN_PTOC">
						<Text dev:id="f1-ln-text">overcurrent</Text>
					</LNode>
					<SubFunction dev:id="sf1" name="Trip">
						<LNode dev:id="sf1-ln" lnClass="XCBR" lnType="LN_XCBR"/>
					</SubFunction>
				</Function>
			</Bay>
		</VoltageLevel>
	</Substation>
	<DataTypeTemplates dev:id="dtt">
		<LNodeType id="LN_PTOC" lnClass="PTOC">
			<DO name="Op" type="DO_ACT"/>
		</LNodeType>
		<LNodeType id="LN_XCBR" lnClass="XCBR">
			<DO name="Pos" type="DO_DPC"/>
		</LNodeType>
		<DOType id="DO_ACT" cdc="ACT">
			<DA name="general" fc="ST" bType="BOOLEAN"/>
		</DOType>
		<DOType id="DO_DPC" cdc="DPC">
			<DA name="stVal" fc="ST" bType="Enum" type="EN_DBPOS"/>
		</DOType>
		<EnumType id="EN_DBPOS">
			<EnumVal ord="1">off</EnumVal>
		</EnumType>
	</DataTypeTemplates>
</SCL>
`

type (
	// staticConfig serves a fixed configuration.
	staticConfig struct {
		cfg *config.Config
	}

	cli struct {
		app    *App
		stdout *bytes.Buffer
		stderr *bytes.Buffer
		dir    string
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	cfg := *s.cfg
	return &cfg, nil
}

// newCLI returns an App whose documents live in a fresh data directory. The
// fixture station.scd is written to the same directory.
func newCLI(t *testing.T, configure ...func(*config.Config)) *cli {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = config.DataDirPath(filepath.Join(dir, "documents"))
	cfg.History.Who = "tester"
	for _, fn := range configure {
		fn(cfg)
	}

	c := &cli{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, dir: dir}
	clock := testutil.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	c.app = NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		Stdout: c.stdout,
		Stderr: c.stderr,
		Clock:  clock.Now,
	})
	testutil.MustWriteFile(t, c.path("station.scd"), []byte(stationSCD))
	return c
}

func (c *cli) path(name string) string {
	return filepath.Join(c.dir, name)
}

// run executes one command line and returns its error. Output buffers are
// reset first.
func (c *cli) run(t *testing.T, args ...string) error {
	t.Helper()
	c.stdout.Reset()
	c.stderr.Reset()

	root := NewRootCommand(c.app)
	root.SetArgs(args)
	root.SetOut(c.stderr)
	root.SetErr(c.stderr)
	return root.ExecuteContext(context.Background())
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := c.run(t, args...); err != nil {
		t.Fatalf("sclkit %v: %v\nstderr:\n%s", args, err, c.stderr.String())
	}
	return c.stdout.String()
}

// mustImport imports the station fixture as document "station", keeping the
// fixture ids.
func (c *cli) mustImport(t *testing.T) {
	t.Helper()
	c.mustRun(t, "import", "--custom-ids", c.path("station.scd"))
}
