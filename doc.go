//
//# MultiPing
//
//MultiPing sends ICMP echo requests to many hosts at once over a single raw
//socket per address family and reports the round trip time of the hosts
//which answered in time, together with the list of those which did not.
//
//Raw sockets usually require root privileges (or CAP_NET_RAW on Linux).
//
//One shot, with retries:
//
//```go
//package main
//
//import (
//    "time"
//
//    "github.com/sirupsen/logrus"
//
//    "gitlab.bertha.cloud/partitio/isi/multiping"
//)
//
//func main() {
//    addrs := []string{"8.8.8.8", "example.com", "127.0.0.1", "cannot.resolve.invalid"}
//    // 3 attempts of 500ms each, unresolvable names end up in noResponse
//    responses, noResponse, err := multiping.MultiPing(addrs, 1500*time.Millisecond, 2,
//        multiping.WithIgnoreLookupErrors(true))
//    if err != nil {
//        logrus.Fatal(err)
//    }
//    for addr, rtt := range responses {
//        logrus.WithField("rtt", rtt).Info(addr)
//    }
//    logrus.Infof("no response: %v", noResponse)
//}
//```
//
//Custom retry policies are built with a Session: the first Send targets all
//the destinations, every following Send only the ones which did not answer
//yet.
//
//```go
//s, err := multiping.NewSession(addrs)
//if err != nil {
//    logrus.Fatal(err)
//}
//defer s.Close()
//timeout := 100 * time.Millisecond
//for i := 0; i < 3; i++ {
//    if err := s.Send(); err != nil {
//        logrus.Fatal(err)
//    }
//    responses, pending, err := s.Receive(timeout)
//    if err != nil {
//        logrus.Fatal(err)
//    }
//    logrus.Info(responses)
//    if len(pending) == 0 {
//        break
//    }
//    timeout *= 2
//}
//```
//
//A Pinger probes its destinations every interval and keeps statistics about
//them, see NewPinger.
package multiping
