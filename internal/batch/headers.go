// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// POSIXHeaders are the standard headers of POSIX.1-2008 (Base
// Specifications, Issue 7), without the .h suffix.
var POSIXHeaders = strings.Fields(`
	aio arpa/inet assert complex cpio ctype dirent dlfcn errno fcntl fenv
	float fmtmsg fnmatch ftw glob grp iconv inttypes iso646 langinfo libgen
	limits locale math monetary mqueue ndbm net/if netdb netinet/in
	netinet/tcp nl_types poll pthread pwd regex sched search semaphore
	setjmp signal spawn stdarg stdbool stddef stdint stdio stdlib string
	strings stropts sys/ipc sys/mman sys/msg sys/resource sys/select sys/sem
	sys/shm sys/socket sys/stat sys/statvfs sys/time sys/times sys/types
	sys/uio sys/un sys/utsname sys/wait syslog tar termios tgmath time trace
	ulimit unistd utime utmpx wchar wctype wordexp
`)

// HeaderFile is the on-disk list of headers for a batch run.
type HeaderFile struct {
	Headers []string `yaml:"headers"`
}

// LoadHeaders reads a YAML header list. The file is either a bare sequence
// of header names or a mapping with a "headers" key.
func LoadHeaders(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading header list: %w", err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err != nil {
		var hf HeaderFile
		if err2 := yaml.Unmarshal(data, &hf); err2 != nil {
			return nil, fmt.Errorf("parsing header list %s: %w", path, err)
		}
		list = hf.Headers
	}

	headers := make([]string, 0, len(list))
	for _, h := range list {
		if h = strings.TrimSuffix(strings.TrimSpace(h), ".h"); h != "" {
			headers = append(headers, h)
		}
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("header list %s is empty", path)
	}
	return headers, nil
}
