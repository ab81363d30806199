package device

import (
    "crypto/sha256"
    "encoding/hex"
    "fmt"
    "os"
    "runtime"

    "github.com/denisbrodbeck/machineid"
)

// Fingerprinter identifies the host a decryption run happens on
type Fingerprinter struct {
    appID string
}

// New creates a Fingerprinter whose ids are scoped to appID
func New(appID string) *Fingerprinter {
    return &Fingerprinter{appID: appID}
}

// HostID returns an application-scoped machine id. The raw machine id
// never leaves the host; when it cannot be read the hostname and platform
// are hashed instead.
func (f *Fingerprinter) HostID() string {
    id, err := machineid.ProtectedID(f.appID)
    if err == nil {
        return id
    }
    return generateHash(fmt.Sprintf("%s|%s|%s/%s", f.appID, getHostname(), runtime.GOOS, runtime.GOARCH))
}

// Platform reports the GOOS/GOARCH pair of the running binary
func Platform() string {
    return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}

func generateHash(input string) string {
    hash := sha256.New()
    hash.Write([]byte(input))
    return hex.EncodeToString(hash.Sum(nil))
}

func getHostname() string {
    hostname, err := os.Hostname()
    if err != nil {
        return "unknown"
    }
    return hostname
}
