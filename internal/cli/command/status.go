package command

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storefront-go/internal/cli/output"
)

// statusMetrics are the exposition families shown by status.
var statusMetrics = []string{
	"app_build_info",
	"app_requests_total",
	"app_http_requests_in_flight",
	"app_store_up",
	"app_store_documents",
	"app_order_events_published_total",
}

type metricSample struct {
	Name  string `json:"name" table:"METRIC"`
	Value string `json:"value" table:"VALUE"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Summarize server metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-path",
				Usage: "Path of the Prometheus endpoint",
				Value: "/metrics",
			},
		},
		Action: status,
	}
}

func status(c *cli.Context) error {
	s, err := session(c)
	if err != nil {
		return err
	}

	data, err := s.Client.Raw(ctxOf(c), c.String("metrics-path"))
	if err != nil {
		return err
	}

	samples := parseSamples(data, statusMetrics)
	if _, ok := s.Formatter.(*output.TableFormatter); ok {
		return s.Print(samples)
	}
	values := make(map[string]string, len(samples))
	for _, sm := range samples {
		values[sm.Name] = sm.Value
	}
	return s.Print(values)
}

// parseSamples picks the samples of the given families out of a text
// exposition, in exposition order.
func parseSamples(data []byte, families []string) []metricSample {
	var samples []metricSample
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.LastIndexByte(line, ' ')
		if i < 0 {
			continue
		}
		name, value := line[:i], line[i+1:]
		family, _, _ := strings.Cut(name, "{")
		for _, f := range families {
			if family == f {
				samples = append(samples, metricSample{Name: name, Value: value})
				break
			}
		}
	}
	return samples
}
