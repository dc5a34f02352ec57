package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/strangebit-io/hipsec/capture"
	"github.com/strangebit-io/hipsec/ipsec"
	"github.com/strangebit-io/hipsec/pktparser"
	"github.com/strangebit-io/hipsec/utils/log"
)

var ifaceName string
var filter string
var engine string
var keyHex string
var logLevel string

func init() {
	flag.StringVar(&ifaceName, "i", "eth0", "interface name")
	flag.StringVar(&filter, "bpf", "ip proto 51 or ip proto 50", "BPF filter")
	flag.StringVar(&engine, "e", "pcap", "capture engine, pcap or afpacket")
	flag.StringVar(&keyHex, "key", "", "hex HMAC-SHA256 key, verify ICVs when set")
	flag.StringVar(&logLevel, "l", "info", "log level")
	flag.Parse()
}

func main() {
	log.SetLevel(logLevel)

	if os.Geteuid() != 0 {
		log.Errorln("must run as root")
		os.Exit(1)
	}

	var key []byte
	if keyHex != "" {
		var err error
		key, err = hex.DecodeString(keyHex)
		if err != nil {
			log.Errorf("invalid key: %s", err.Error())
			os.Exit(1)
		}
	}

	var handle capture.Source
	var err error
	switch engine {
	case "pcap":
		handle, err = capture.OpenPcap(ifaceName, filter)
	case "afpacket":
		handle, err = capture.OpenAfpacket(ifaceName, filter)
	default:
		log.Errorf("unknown capture engine: %s", engine)
		os.Exit(1)
	}
	if err != nil {
		log.Errorf("failed to open %s on %s, err: %s", engine, ifaceName, err.Error())
		os.Exit(1)
	}

	defer handle.Close()

	chain := pktparser.NewAHChain()
	firstLayer := chain.FirstLayerType(handle.LinkType())
	if firstLayer == gopacket.LayerTypeZero {
		log.Errorf("no first decode layer for link type %s", handle.LinkType().String())
		os.Exit(1)
	}

	decode := chain.Decoder(firstLayer)
	decoded := make([]gopacket.LayerType, 0, 4)
	for {
		data, _, err := handle.ZeroCopyReadPacketData()
		if err != nil {
			log.Errorf("error getting packet: %s", err.Error())
			continue
		}

		if _, err = decode(data, &decoded); err != nil {
			log.Debugf("error decoding packet: %s", err.Error())
			continue
		}

		for _, typ := range decoded {
			switch typ {
			case layers.LayerTypeIPSecAH:
				reportAH(chain, key)
			case layers.LayerTypeIPSecESP:
				log.Infof("ESP %s > %s spi=0x%08x seq=%d opaque=%d",
					chain.IP4.SrcIP, chain.IP4.DstIP, chain.ESP.SPI, chain.ESP.Seq, len(chain.ESP.Encrypted))
			}
		}
	}
}

func reportAH(chain *pktparser.AHChain, key []byte) {
	ah := &chain.AH
	log.Infof("AH %s > %s next=%s spi=0x%08x seq=%d icv=%d payload=%d",
		chain.IP4.SrcIP, chain.IP4.DstIP, ah.NextHeader.String(),
		ah.SPI, ah.Seq, len(ah.AuthenticationData), len(ah.LayerPayload()))

	if key == nil {
		return
	}

	raw := make([]byte, 0, len(ah.Contents)+len(ah.LayerPayload()))
	raw = append(raw, ah.Contents...)
	raw = append(raw, ah.LayerPayload()...)
	pkt, err := ipsec.ParseAHPacket(raw)
	if err != nil {
		log.Warnf("unparseable AH packet: %s", err.Error())
		return
	}
	icv := pkt.ICV()
	if len(icv) > sha256.Size {
		log.Warnf("ICV of %d bytes too long for HMAC-SHA256, skip verify", len(icv))
		return
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(pkt.AuthData())
	if hmac.Equal(mac.Sum(nil)[:len(icv)], icv) {
		log.Infof("ICV ok spi=0x%08x seq=%d", pkt.SPI(), pkt.Sequence())
	} else {
		log.Warnf("ICV mismatch spi=0x%08x seq=%d", pkt.SPI(), pkt.Sequence())
	}
}
