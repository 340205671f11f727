package e2e

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/drivesim/app"
	"github.com/kilianp07/drivesim/config"
	"github.com/kilianp07/drivesim/core/cycle"
	"github.com/kilianp07/drivesim/core/factory"
)

const (
	influxOrg    = "drivesim"
	influxBucket = "runs"
	influxToken  = "e2e-token"
)

// junitReport is a minimal representation of a JUnit XML report. The E2E
// suite writes such a report so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

// writeJUnit writes the provided report to the given path.
func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts an InfluxDB 2.7 container initialised with the test
// org, bucket and admin token.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "drivesim",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "drivesim-e2e",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      "bootstrap",
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a basic Mosquitto broker for tests.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func subscribe(t *testing.T, broker, topic string) <-chan []byte {
	t.Helper()
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-sub"))
	tok := sub.Connect()
	tok.Wait()
	require.NoError(t, tok.Error())
	t.Cleanup(func() { sub.Disconnect(100) })
	got := make(chan []byte, 4)
	tok = sub.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) { got <- m.Payload() })
	tok.Wait()
	require.NoError(t, tok.Error())
	return got
}

// Test_E2E_RunPipeline drives one simulation through the service with the
// influx sink and the MQTT publisher wired to real containers, then reads
// both back.
func Test_E2E_RunPipeline(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	started := time.Now()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	mqttCont, mqttURL := startMosquitto(ctx, t)
	defer mqttCont.Terminate(ctx) //nolint:errcheck
	t.Logf("InfluxDB started at %s", influxURL)
	t.Logf("Mosquitto started at %s", mqttURL)

	cli := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	require.NoError(t, cli.SetupBucket(ctx))

	summaries := subscribe(t, mqttURL, "e2e/+/summary")

	cfg := config.Default()
	cfg.Sim.Verbose = false
	cfg.Logging.Path = filepath.Join(t.TempDir(), "runs.jsonl")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket},
	}}
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = mqttURL
	cfg.MQTT.ClientID = "e2e-pub"
	cfg.MQTT.TopicPrefix = "e2e"
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	defer svc.Close() //nolint:errcheck

	res, err := svc.Simulate(ctx, app.RunRequest{
		Vehicle: "midsize_hev",
		Cycle:   cycle.Def{Kind: "trapezoid", Name: "e2e", MPS: 20, AccelS: 15, CruiseS: 60, DecelS: 15},
	})
	require.NoError(t, err)

	mpgge, err := cli.RunField(ctx, res.RunID, "mpgge")
	require.NoError(t, err)
	assert.InDelta(t, res.Summary.MPGGE, mpgge, 1e-3)

	steps, err := cli.StepCount(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(res.SimDrive.Cycle().Len()), steps)

	select {
	case payload := <-summaries:
		assert.Contains(t, string(payload), res.RunID)
	case <-time.After(10 * time.Second):
		t.Fatal("no summary published")
	}

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: t.Name(), Time: time.Since(started).Seconds()}}}
	dir := os.Getenv("E2E_REPORT_DIR")
	if dir == "" {
		dir = t.TempDir()
	}
	if err := writeJUnit(filepath.Join(dir, "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
