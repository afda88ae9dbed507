// rs485gen 离线生成或校验 485 屏显报文，便于现场调试
//
//	rs485gen -profile color -scene entry -plate 渝A12345 -spaces 7
//	rs485gen -profile standard -cmd display -line 1 -text 欢迎光临 -envelope
//	rs485gen -verify AA550164002200010B0776AF
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/taoyao-code/park-rs485/internal/envelope"
	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
	"github.com/taoyao-code/park-rs485/internal/service"
)

func main() {
	var (
		profile  = flag.String("profile", "standard", "standard|color|small_vertical|tts|card")
		screen   = flag.Int("screen", 0, "card 规格使用的屏型代码")
		charset  = flag.String("charset", "GBK", "文本编码")
		address  = flag.Int("address", int(rs485.DefaultAddr), "设备地址")
		sceneArg = flag.String("scene", "", "业务场景名")
		cmdArg   = flag.String("cmd", "", "原子指令名")
		plate    = flag.String("plate", "", "车牌")
		amount   = flag.String("amount", "", "金额（元）")
		spaces   = flag.Int("spaces", 0, "剩余车位")
		payURL   = flag.String("pay-url", "", "支付链接")
		line     = flag.Int("line", 1, "行号")
		color    = flag.Int("color", rs485.ColorGreen, "颜色")
		text     = flag.String("text", "", "文本；small-screen 用 | 分隔四行")
		duration = flag.Int("duration", 0, "停留秒数")
		voice    = flag.String("voice", "", "语音段序号，逗号分隔")
		volume   = flag.Int("volume", 5, "音量 0-9")
		asEnv    = flag.Bool("envelope", false, "输出网关 JSON 报文")
		verify   = flag.String("verify", "", "校验一帧十六进制")
		le       = flag.Bool("le", false, "校验时使用整帧 CRC 低字节在前")
	)
	flag.Parse()

	if *verify != "" {
		os.Exit(verifyFrame(*verify, *le))
	}

	p, err := resolveProfile(*profile, *screen)
	if err != nil {
		fail(err)
	}
	te, err := rs485.NewTextEncoder(*charset)
	if err != nil && !errors.Is(err, rs485.ErrEncodingUnavailable) {
		fail(err)
	}
	if *address < 0 || *address > 0xFF {
		fail(fmt.Errorf("address %d out of range", *address))
	}
	enc := rs485.NewEncoder(p, rs485.WithTextEncoder(te), rs485.WithAddress(byte(*address)))

	var packets []rs485.Packet
	switch {
	case *sceneArg != "":
		packets, err = service.ComposeScene(enc, *sceneArg, service.SceneRequest{
			Plate: *plate, Amount: *amount, Spaces: *spaces, PayURL: *payURL,
		})
	case *cmdArg != "":
		req := service.CommandRequest{
			Lines:    []service.CommandLine{{Line: *line, Color: *color, Text: *text, Duration: *duration}},
			Text:     *text,
			Plate:    *plate,
			Color:    *color,
			Duration: *duration,
			Content:  *text,
			Volume:   *volume,
		}
		if *cmdArg == service.CmdSmallScreen {
			req.Lines = smallLines(*text, *color)
		}
		if req.Indices, err = parseIndices(*voice); err != nil {
			fail(err)
		}
		packets, err = service.BuildCommand(enc, *cmdArg, req)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}

	if *asEnv {
		data, err := envelope.Wrap(packets).Marshal()
		if err != nil {
			fail(err)
		}
		fmt.Println(string(data))
		return
	}
	for _, pk := range packets {
		fmt.Println(pk.Hex())
	}
}

func resolveProfile(name string, screen int) (rs485.Profile, error) {
	if name == service.ProfileCard {
		return rs485.ProfileForScreen(rs485.ScreenTypeFromCode(screen)), nil
	}
	return rs485.ProfileByName(name)
}

func smallLines(text string, color int) []service.CommandLine {
	parts := strings.Split(text, "|")
	lines := make([]service.CommandLine, len(parts))
	for i, p := range parts {
		lines[i] = service.CommandLine{Line: i + 1, Color: color, Text: p}
	}
	return lines
}

func parseIndices(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("voice index %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func verifyFrame(hex string, le bool) int {
	conv := rs485.CRCZeroFilledBE
	if le {
		conv = rs485.CRCRawLE
	}
	f, err := rs485.ParseFrameHex(hex, conv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid:", err)
		return 1
	}
	fmt.Printf("seq=0x%02X addr=0x%02X cmd=0x%02X crc=0x%04X payload=%s\n",
		f.Seq, f.Address, f.Command, f.CRC, rs485.ToHexString(f.Payload))
	return 0
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
