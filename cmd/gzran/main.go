// Command gzran builds or reads a random-access index for a gzip or zlib
// compressed file.
//
// Usage:
//
//	gzran -b <file>                build <file>.idx and exit
//	gzran <file> <begin>-<end>     emit uncompressed bytes [begin, end)
//	gzran <file> <begin>-          emit from begin to end of stream
//	gzran <file> -<end>            emit from 0 to end
//	gzran <file> <N>               emit the single byte at offset N
package main

import (
	"fmt"
	"os"

	"github.com/go-zran/gzran"
	"github.com/go-zran/gzran/internal/capnslog"
)

var log = capnslog.NewPackageLogger("github.com/go-zran/gzran", "cmd")

func main() {
	capnslog.SetFormatter(capnslog.NewStringFormatter(os.Stderr))
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 2 && args[0] == "-b" {
		return runBuild(args[1])
	}
	if len(args) == 2 {
		return runExtract(args[0], args[1])
	}
	fmt.Fprintln(os.Stderr, "usage: gzran -b <file> | gzran <file> <range>")
	return 1
}

func runBuild(path string) int {
	sess, err := gzran.Open(path)
	if err != nil {
		log.Errorf("build %s: %v", path, err)
		return 1
	}
	defer sess.Close()
	return 0
}

func runExtract(path, rangeArg string) int {
	rr, err := parseRange(rangeArg)
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}

	sess, err := gzran.Open(path)
	if err != nil {
		log.Errorf("open %s: %v", path, err)
		return 1
	}
	defer sess.Close()

	end := rr.end
	if !rr.hasEnd {
		end = sess.UnpackedLength()
	}
	if end < rr.begin {
		end = rr.begin
	}

	sess.Seek(rr.begin)
	remaining := end - rr.begin
	buf := make([]byte, 32*1024)
	for remaining > 0 {
		n := uint64(len(buf))
		if n > remaining {
			n = remaining
		}
		read, err := sess.Read(buf[:n])
		if err != nil {
			log.Errorf("read %s: %v", path, err)
			return 1
		}
		if read == 0 {
			break
		}
		if _, werr := os.Stdout.Write(buf[:read]); werr != nil {
			log.Errorf("write stdout: %v", werr)
			return 1
		}
		remaining -= uint64(read)
	}
	return 0
}
