package cmd

import (
	"fmt"
	"strconv"

	"github.com/go-drift/geodealer/pkg/location"
)

func init() {
	RegisterCommand(&Command{
		Name:  "permit",
		Short: "Evaluate a location permit",
		Long: `Evaluate the permit for a service state and authorization status.

Flags:
  --service BOOL    Whether location services are enabled (default: true)
  --status STATUS   Authorization status: notDetermined, restricted, denied,
                    authorizedAlways, authorizedWhenInUse (default: notDetermined)

Examples:
  geodealer permit --service=false --status=denied
  geodealer permit --status authorizedWhenInUse`,
		Usage: "geodealer permit [--service BOOL] [--status STATUS]",
		Run:   runPermit,
	})
}

func runPermit(args []string) error {
	service := true
	status := location.StatusNotDetermined

	for i := 0; i < len(args); i++ {
		if v, n, ok := flagValue(args, i, "--service"); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid --service value %q", v)
			}
			service = b
			i += n
			continue
		}
		if v, n, ok := flagValue(args, i, "--status"); ok {
			s, known := location.ParseAuthorizationStatus(v)
			if !known {
				return fmt.Errorf("unknown --status %q", v)
			}
			status = s
			i += n
			continue
		}
		return fmt.Errorf("unexpected argument %q\n\nUsage: geodealer permit [--service BOOL] [--status STATUS]", args[i])
	}

	fmt.Fprintln(stdout, location.Evaluate(service, status))
	return nil
}
