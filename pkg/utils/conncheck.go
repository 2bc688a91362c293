package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/mpapenbr/f1-livetiming-go/log"
)

func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s could not be reached after %v", addr, timeout)
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// WaitForHTTPResponse waits until url answers with any HTTP response
func WaitForHTTPResponse(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	log.Debug("wait for http request",
		log.String("url", url),
		log.String("timeout", timeout.String()))
	cli := &http.Client{}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
		if err != nil {
			return err
		}
		if resp, err := cli.Do(req); err == nil {
			resp.Body.Close()
			log.Debug("http request successful",
				log.String("url", url),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s could not be reached after %v", url, timeout)
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func ExtractFromWebsocketURL(url string) (addr, proto string) {
	param := resolveRegex(
		"^(?P<proto>ws|wss)://(?P<addr>(?P<host>[^/:]*?)(:(?P<port>\\d+))?)(/.*)?$", url)
	if len(param) == 0 {
		return "", ""
	}
	if port, ok := param["port"]; ok && port != "" {
		// if port is found, the addr contains our wanted value
		return param["addr"], param["proto"]
	} else if proto := param["proto"]; proto == "wss" {
		return fmt.Sprintf("%s:443", param["addr"]), proto
	} else {
		return fmt.Sprintf("%s:80", param["addr"]), proto
	}
}

func ExtractFromNatsURL(url string) string {
	param := resolveRegex(
		"^nats://(.*@)?(?P<addr>(?P<host>[^/:]*?)(:(?P<port>\\d+))?)/?$", url)
	if len(param) == 0 {
		return ""
	}
	if port, ok := param["port"]; ok && port != "" {
		return param["addr"]
	}
	return fmt.Sprintf("%s:4222", param["addr"])
}

func resolveRegex(regEx, url string) (paramsMap map[string]string) {
	compRegEx := regexp.MustCompile(regEx)
	match := compRegEx.FindStringSubmatch(url)
	if match == nil {
		return nil
	}
	paramsMap = make(map[string]string)
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && name != "" && i < len(match) {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
