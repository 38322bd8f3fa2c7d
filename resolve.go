package multiping

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Resolver turns a destination name into a numeric address.
type Resolver interface {
	Resolve(ctx context.Context, name string) (net.IP, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, name string) (net.IP, error)

func (f ResolverFunc) Resolve(ctx context.Context, name string) (net.IP, error) {
	return f(ctx, name)
}

// DefaultResolver resolves names with net.DefaultResolver, preferring IPv4
// answers over IPv6 ones.
var DefaultResolver Resolver = ResolverFunc(resolve)

func resolve(ctx context.Context, addr string) (net.IP, error) {
	if ip := net.ParseIP(addr); ip != nil {
		return ip, nil
	}
	if strings.ContainsRune(addr, '%') {
		ipaddr, err := net.ResolveIPAddr("ip", addr)
		if err != nil {
			return nil, err
		}
		return ipaddr.IP, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, addr)
	if err != nil {
		return nil, err
	}
	if len(addrs) < 1 {
		return nil, fmt.Errorf("%s : no ip found", addr)
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			return a.IP, nil
		}
	}
	return addrs[0].IP, nil
}
