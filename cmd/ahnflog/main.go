package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/florianl/go-nflog/v2"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/strangebit-io/hipsec/pktparser"
	"github.com/strangebit-io/hipsec/utils/log"
)

var group int
var logLevel string

func init() {
	flag.IntVar(&group, "g", 0, "nflog group id")
	flag.StringVar(&logLevel, "l", "info", "log level")
	flag.Parse()
}

func main() {
	// # iptables -t raw -A PREROUTING -p 51 -j NFLOG --nflog-group 2
	// # iptables -t raw -A PREROUTING -p 50 -j NFLOG --nflog-group 2

	log.SetLevel(logLevel)

	chain := pktparser.NewAHChain()
	decode := chain.Decoder(layers.LayerTypeIPv4)
	decoded := make([]gopacket.LayerType, 0, 4)

	config := nflog.Config{
		Group:    uint16(group),
		Copymode: nflog.CopyPacket,
	}

	nf, err := nflog.Open(&config)
	if err != nil {
		log.Errorf("failed to open nflog group %d, err: %s", group, err.Error())
		os.Exit(1)
	}
	defer nf.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fn := func(attrs nflog.Attribute) int {
		if attrs.Payload == nil {
			return 0
		}
		if _, err := decode(*attrs.Payload, &decoded); err != nil {
			log.Debugf("error decoding packet: %s", err.Error())
			return 0
		}
		for _, typ := range decoded {
			switch typ {
			case layers.LayerTypeIPSecAH:
				log.Infof("AH %s > %s next=%s spi=0x%08x seq=%d icv=%d payload=%d",
					chain.IP4.SrcIP, chain.IP4.DstIP, chain.AH.NextHeader.String(),
					chain.AH.SPI, chain.AH.Seq,
					len(chain.AH.AuthenticationData), len(chain.AH.LayerPayload()))
			case layers.LayerTypeIPSecESP:
				log.Infof("ESP %s > %s spi=0x%08x seq=%d opaque=%d",
					chain.IP4.SrcIP, chain.IP4.DstIP,
					chain.ESP.SPI, chain.ESP.Seq, len(chain.ESP.Encrypted))
			}
		}
		return 0
	}

	err = nf.Register(ctx, fn)
	if err != nil {
		log.Errorf("failed to register nflog hook, err: %s", err.Error())
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
