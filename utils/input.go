package utils

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ExtractDomain extracts the host from a URL, without port
func ExtractDomain(urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Hostname() == "" {
		return "", fmt.Errorf("no host in URL: %s", urlStr)
	}
	return parsedURL.Hostname(), nil
}

// IsValidURL reports an absolute http(s) URL with a host.
func IsValidURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return (parsedURL.Scheme == "http" || parsedURL.Scheme == "https") && parsedURL.Host != ""
}

/*
   Adds https:// to bare hosts and a trailing slash to bare domains, so
   "example.com" and "https://example.com/" name the same seed
*/
func SanitizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		urlStr = "https://" + urlStr
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	if parsedURL.Path == "" {
		parsedURL.Path = "/"
	}
	return parsedURL.String()
}

// ReadLinesFromFile returns non-empty lines, skipping # comments.
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, NewError(ConfigError, "failed to open input file", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)

	const maxCapacity = 512 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NewError(ConfigError, "error reading input file", err)
	}
	return lines, nil
}

// IsBinaryContent samples the first KiB for NUL and control bytes.
func IsBinaryContent(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	checkLength := min(len(content), 1024)
	suspicious := 0
	for _, c := range content[:checkLength] {
		if c == 0 || (c < 32 && c != '\n' && c != '\r' && c != '\t') {
			suspicious++
		}
	}
	return float64(suspicious)/float64(checkLength) > 0.1
}
