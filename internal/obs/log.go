package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// serviceName tags every log line so shippers can split the auditline
// stream out of a shared collector.
const serviceName = "auditline-api"

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared line logger. Request logs, audit-trail events
// and startup output all funnel through it, one JSON object per line.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// Emit writes entry as one JSON line, stamping ts and service when the
// caller did not set them. The entry map is not retained.
func Emit(entry map[string]any) {
	if _, ok := entry["ts"]; !ok {
		entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if _, ok := entry["service"]; !ok {
		entry["service"] = serviceName
	}
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"ts":"error","level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}

// LogRequest emits one access-log line with common HTTP fields.
func LogRequest(entry map[string]any) {
	Emit(entry)
}
