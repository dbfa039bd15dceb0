package executor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"

	"vod-service/ddd/domain/port"
	"vod-service/ddd/domain/vo"
	"vod-service/pkg/config"
	"vod-service/pkg/logger"
)

// FFmpegExecutor implements port.MediaAdapter using local ffmpeg/ffprobe binaries.
type FFmpegExecutor struct {
	cfg config.FFmpegConfig
}

func NewFFmpegExecutor(cfg *config.Config) *FFmpegExecutor {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	var ff config.FFmpegConfig
	if cfg != nil {
		ff = cfg.Transcode.FFmpeg
	}
	return &FFmpegExecutor{cfg: ff}
}

var _ port.MediaAdapter = (*FFmpegExecutor)(nil)

// Probe runs ffprobe with JSON output. No video stream yields port.ErrNoVideoStream,
// any other failure wraps port.ErrProbeFailed.
func (e *FFmpegExecutor) Probe(ctx context.Context, input string) (vo.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, e.probeBinary(),
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		input,
	)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return vo.MediaInfo{}, fmt.Errorf("%w: %s", port.ErrProbeFailed, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return vo.MediaInfo{}, fmt.Errorf("%w: %v", port.ErrProbeFailed, err)
	}
	return parseProbeOutput(out)
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

func parseProbeOutput(data []byte) (vo.MediaInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return vo.MediaInfo{}, fmt.Errorf("%w: decode ffprobe output: %v", port.ErrProbeFailed, err)
	}
	var info vo.MediaInfo
	foundVideo := false
	for _, s := range p.Streams {
		switch s.CodecType {
		case "video":
			if !foundVideo && s.Width > 0 && s.Height > 0 {
				info.Width, info.Height, info.VideoCodec = s.Width, s.Height, s.CodecName
				foundVideo = true
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
			}
		}
	}
	if !foundVideo {
		return vo.MediaInfo{}, port.ErrNoVideoStream
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(p.Format.Duration), 64); err == nil && d > 0 {
		info.Duration = d
	}
	if br, err := strconv.ParseInt(strings.TrimSpace(p.Format.BitRate), 10, 64); err == nil {
		info.Bitrate = br
	}
	return info, nil
}

// ExtractThumbnail grabs a single jpeg frame at atSeconds.
func (e *FFmpegExecutor) ExtractThumbnail(ctx context.Context, input, output string, atSeconds float64) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	args := []string{
		"-y",
		"-ss", strconv.FormatFloat(atSeconds, 'f', 3, 64),
		"-i", input,
		"-frames:v", "1",
		"-q:v", "2",
		output,
	}
	cmd := exec.CommandContext(ctx, e.binary(), args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("extract thumbnail: %w: %s", err, tail(string(out), 512))
	}
	return nil
}

// TranscodeHLS encodes one ladder preset into index.m3u8 plus segment_%03d.ts files.
func (e *FFmpegExecutor) TranscodeHLS(ctx context.Context, req port.HLSRequest) (*port.HLSOutput, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	durationSec := e.probeDurationSeconds(ctx, req.Input)
	args := buildHLSArgs(e.cfg, req)
	cmd := exec.CommandContext(ctx, e.binary(), args...)
	logger.Infof("ffmpeg command quality=%s command=%s", req.Preset.Quality, strings.Join(cmd.Args, " "))

	start := time.Now()
	if err := e.executeFFmpegCommand(ctx, cmd, durationSec, req.ProgressCb); err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %w", req.Preset.Quality, err)
	}
	logger.Infof("ffmpeg finished quality=%s elapsed=%s", req.Preset.Quality, time.Since(start).Round(time.Millisecond))

	playlistPath := filepath.Join(req.OutputDir, "index.m3u8")
	segments, err := listSegments(playlistPath)
	if err != nil {
		return nil, err
	}
	return &port.HLSOutput{Playlist: playlistPath, Segments: segments}, nil
}

// buildHLSArgs keeps keyframes on segment boundaries so every segment starts decodable.
func buildHLSArgs(cfg config.FFmpegConfig, req port.HLSRequest) []string {
	videoCodec := "libx264"
	if strings.TrimSpace(cfg.VideoCodec) != "" {
		videoCodec = cfg.VideoCodec
	}
	videoPreset := "medium"
	if strings.TrimSpace(cfg.VideoPreset) != "" {
		videoPreset = cfg.VideoPreset
	}
	segment := req.SegmentSeconds
	if segment <= 0 {
		segment = 6
	}
	p := req.Preset

	args := make([]string, 0, 48)
	if hw := strings.TrimSpace(cfg.HardwareAccel); hw != "" {
		args = append(args, "-hwaccel", hw)
	}
	args = append(args,
		"-probesize", "5M",
		"-analyzeduration", "5M",
		"-i", req.Input,
		"-progress", "pipe:2",
		"-nostats",
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", p.Width, p.Height, p.Width, p.Height),
		"-c:v", videoCodec,
	)
	if !strings.Contains(strings.ToLower(videoCodec), "nvenc") {
		args = append(args, "-preset", videoPreset)
	}
	args = append(args,
		"-b:v", p.VideoBitrate,
		"-maxrate", p.VideoBitrate,
		"-bufsize", doubleBitrate(p.VideoBitrate),
		"-force_key_frames", fmt.Sprintf("expr:gte(t,n_forced*%d)", segment),
		"-sc_threshold", "0",
	)
	if cfg.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(cfg.Threads))
	}
	args = append(args,
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-ac", "2",
		"-hls_time", strconv.Itoa(segment),
		"-hls_list_size", "0",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(req.OutputDir, "segment_%03d.ts"),
		"-f", "hls",
		"-y",
		filepath.Join(req.OutputDir, "index.m3u8"),
	)
	return args
}

// doubleBitrate "2800k" -> "5600k"
func doubleBitrate(b string) string {
	s := strings.TrimSpace(b)
	unit := ""
	if n := len(s); n > 0 && (s[n-1] < '0' || s[n-1] > '9') {
		unit = s[n-1:]
		s = s[:n-1]
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return b
	}
	return strconv.Itoa(v*2) + unit
}

// listSegments reads segment URIs from the media playlist, falling back to a directory scan.
func listSegments(playlistPath string) ([]string, error) {
	data, err := os.ReadFile(playlistPath)
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	dir := filepath.Dir(playlistPath)
	if pl, err := playlist.Unmarshal(data); err == nil {
		if media, ok := pl.(*playlist.Media); ok {
			out := make([]string, 0, len(media.Segments))
			for _, seg := range media.Segments {
				out = append(out, filepath.Join(dir, filepath.Base(seg.URI)))
			}
			return out, nil
		}
	} else {
		logger.Warnf("parse media playlist failed, scanning dir path=%s err=%v", playlistPath, err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "segment_*.ts"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func (e *FFmpegExecutor) executeFFmpegCommand(ctx context.Context, cmd *exec.Cmd, durationSec float64, progressCb port.ProgressCallback) error {
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("创建FFmpeg stderr管道失败: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("启动FFmpeg命令失败: %w", err)
	}

	progressDone := make(chan struct{})
	buf := make([]string, 0, 200)
	go func() {
		defer close(progressDone)
		e.scanFFmpegProgress(ctx, stderr, durationSec, &buf, progressCb)
	}()

	// stderr 读完之后再 Wait，避免丢失尾部输出
	<-progressDone
	err = cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		tailLines := buf
		if n := len(tailLines); n > 50 {
			tailLines = tailLines[n-50:]
		}
		if len(tailLines) > 0 {
			logger.Errorf("ffmpeg failed tail_stderr=%s", strings.Join(tailLines, "\n"))
		}
	}
	return err
}

var reTime = regexp.MustCompile(`time=(\d+):(\d+):(\d+\.?\d*)`)

func (e *FFmpegExecutor) scanFFmpegProgress(ctx context.Context, stderr io.Reader, durationSec float64, capture *[]string, progressCb port.ProgressCallback) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if ctx.Err() != nil {
			continue
		}

		if strings.HasPrefix(line, "out_time_ms=") {
			if ms, err := strconv.ParseFloat(strings.TrimPrefix(line, "out_time_ms="), 64); err == nil && durationSec > 0 {
				emitProgress(ms/1e6, durationSec, progressCb)
			}
			continue
		}

		if m := reTime.FindStringSubmatch(line); len(m) == 4 && durationSec > 0 {
			hh, _ := strconv.ParseFloat(m[1], 64)
			mm, _ := strconv.ParseFloat(m[2], 64)
			ss, _ := strconv.ParseFloat(m[3], 64)
			emitProgress(hh*3600+mm*60+ss, durationSec, progressCb)
			continue
		}

		if capture != nil {
			b := *capture
			if len(b) >= 200 {
				b = b[1:]
			}
			*capture = append(b, line)
		}
	}
}

// emitProgress caps at 99, 100 is reported by the caller once outputs are uploaded.
func emitProgress(currentSec, totalSec float64, cb port.ProgressCallback) {
	if cb == nil || totalSec <= 0 {
		return
	}
	pct := int((currentSec / totalSec) * 100)
	if pct > 99 {
		pct = 99
	}
	if pct < 0 {
		pct = 0
	}
	cb(pct)
}

// probeDurationSeconds 调用 ffprobe 获取输入时长（秒），失败则返回 0。
func (e *FFmpegExecutor) probeDurationSeconds(ctx context.Context, inputPath string) float64 {
	cmd := exec.CommandContext(ctx, e.probeBinary(), "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", inputPath)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0
	}
	return val
}

func (e *FFmpegExecutor) binary() string {
	if e.cfg.BinaryPath != "" {
		return e.cfg.BinaryPath
	}
	return "ffmpeg"
}

func (e *FFmpegExecutor) probeBinary() string {
	if e.cfg.ProbePath != "" {
		return e.cfg.ProbePath
	}
	return "ffprobe"
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
