package scratch

import (
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

// procToken fingerprints this process run: pid and start time, both base 36.
// It keeps names from colliding with leftovers of an earlier run that died
// before cleanup and reused the same counter values.
var procToken = strconv.FormatInt(int64(os.Getpid()), 36) + "-" +
	strconv.FormatInt(time.Now().UnixMilli(), 36)

var serial atomic.Int64

// nextSerial returns a process-unique base-36 counter value. Entries inside
// the base directory only need this much: the directory itself is already
// unique across processes.
func nextSerial() string {
	return strconv.FormatInt(serial.Add(1), 36)
}

// GenerateName returns a short name guaranteed unique across all calls in
// this process, and distinguishable from names generated by any other run.
// The optional prefix is joined with "-".
func GenerateName(prefix string) string {
	name := procToken + "-" + nextSerial()
	if prefix != "" {
		name = prefix + "-" + name
	}
	return name
}
