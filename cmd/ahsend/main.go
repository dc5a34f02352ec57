package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"net"
	"os"

	"golang.org/x/net/ipv4"

	"github.com/strangebit-io/hipsec/ipsec"
	"github.com/strangebit-io/hipsec/utils/log"
)

// HMAC-SHA256-96, the truncation negotiated by the HIP stack.
const icvLength = 12

var dst string
var keyHex string
var payloadHex string
var spi uint
var seq uint
var next uint
var ttl int

func init() {
	flag.StringVar(&dst, "d", "", "destination address")
	flag.StringVar(&keyHex, "key", "", "hex HMAC-SHA256 key")
	flag.StringVar(&payloadHex, "p", "", "hex payload to protect")
	flag.UintVar(&spi, "spi", 1, "security parameters index")
	flag.UintVar(&seq, "seq", 1, "sequence number")
	flag.UintVar(&next, "next", 41, "next header protocol number")
	flag.IntVar(&ttl, "ttl", 64, "outgoing TTL")
	flag.Parse()
}

func main() {
	if dst == "" || keyHex == "" {
		flag.Usage()
		os.Exit(1)
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		log.Errorf("invalid key: %s", err.Error())
		os.Exit(1)
	}
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		log.Errorf("invalid payload: %s", err.Error())
		os.Exit(1)
	}

	pkt, err := buildPacket(key, payload)
	if err != nil {
		log.Errorf("failed to build AH packet: %s", err.Error())
		os.Exit(1)
	}

	c, err := net.ListenPacket("ip4:51", "0.0.0.0")
	if err != nil {
		log.Errorf("failed to open raw socket: %s", err.Error())
		os.Exit(1)
	}
	p := ipv4.NewPacketConn(c)
	defer p.Close()

	if err = p.SetTTL(ttl); err != nil {
		log.Errorf("failed to set TTL: %s", err.Error())
		os.Exit(1)
	}

	addr, err := net.ResolveIPAddr("ip4", dst)
	if err != nil {
		log.Errorf("failed to resolve %s: %s", dst, err.Error())
		os.Exit(1)
	}

	if _, err = p.WriteTo(pkt.Bytes(), nil, addr); err != nil {
		log.Errorf("failed to send: %s", err.Error())
		os.Exit(1)
	}
	log.Infof("sent %d bytes to %s spi=0x%08x seq=%d", len(pkt.Bytes()), dst, spi, seq)
}

// buildPacket assembles the AH packet in two passes: a probe with a
// zeroed ICV yields the MAC input, then the real packet is framed
// around the computed ICV. Both passes cover identical bytes since the
// ICV field is treated as zero in the MAC input either way.
func buildPacket(key, payload []byte) (*ipsec.AHPacket, error) {
	probe := ipsec.NewAHPacket(uint8(next))
	probe.SetSPI(uint32(spi))
	probe.SetSequence(uint32(seq))
	if err := probe.InsertICV(make([]byte, icvLength)); err != nil {
		return nil, err
	}
	probe.AppendPayload(payload)

	mac := hmac.New(sha256.New, key)
	mac.Write(probe.AuthData())
	icv := mac.Sum(nil)[:icvLength]

	pkt := ipsec.NewAHPacket(uint8(next))
	pkt.SetSPI(uint32(spi))
	pkt.SetSequence(uint32(seq))
	if err := pkt.InsertICV(icv); err != nil {
		return nil, err
	}
	pkt.AppendPayload(payload)
	return pkt, nil
}
