// Package console interprets the line-oriented commands of the interactive
// shell against at most one mounted image.
package console

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/weberc2/mono/jfs/pkg/file"
	"github.com/weberc2/mono/jfs/pkg/fs"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

type Console struct {
	options fs.Options
	log     log.FieldLogger

	fs    *fs.FileSystem
	image string
	cwd   fs.DirDescriptor
	path  []string
}

func New(options fs.Options) *Console {
	if options.Logger == nil {
		options.Logger = log.StandardLogger()
	}
	return &Console{options: options, log: options.Logger}
}

// Prefix is the prompt: `@IMAGE:/PATH> ` while mounted, `> ` otherwise.
func (c *Console) Prefix() string {
	if c.fs == nil {
		return "> "
	}
	return fmt.Sprintf("@%s:/%s> ", c.image, strings.Join(c.path, "/"))
}

type command struct {
	usage   string
	mounted bool
	run     func(c *Console, args []string) (string, error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"mount":  {usage: "mount FILE", run: (*Console).mount},
		"umount": {usage: "umount", run: (*Console).umount},
		"create": {usage: "create FILE SIZE", run: (*Console).create},
		"format": {usage: "format FILE", run: (*Console).format},
		"cd":     {usage: "cd DIR", mounted: true, run: (*Console).cd},
		"ls":     {usage: "ls", mounted: true, run: (*Console).ls},
		"mkdir":  {usage: "mkdir DIR", mounted: true, run: (*Console).mkdir},
		"touch":  {usage: "touch FILE", mounted: true, run: (*Console).touch},
		"rm":     {usage: "rm [-r] NAME", mounted: true, run: (*Console).rm},
		"cat":    {usage: "cat FILE", mounted: true, run: (*Console).cat},
		"append": {usage: "append FILE TEXT...", mounted: true, run: (*Console).append},
		"df":     {usage: "df", mounted: true, run: (*Console).df},
		"fsck":   {usage: "fsck", mounted: true, run: (*Console).fsck},
	}
}

// Execute runs one tokenized command line and returns the text to show the
// user, which may be empty. Refused requests are reported and leave the
// mount in place. Any other file system error unmounts the image.
func (c *Console) Execute(tokens []string) string {
	if len(tokens) == 0 || tokens[0] == "" {
		return ""
	}
	cmd, found := commands[tokens[0]]
	if !found {
		return "unsupported command"
	}
	if cmd.mounted && c.fs == nil {
		return "file system is not mounted"
	}

	out, err := cmd.run(c, tokens[1:])
	if err == nil {
		return out
	}
	var usage usageErr
	if errors.As(err, &usage) {
		return fmt.Sprintf("%s, usage: %s", usage, cmd.usage)
	}
	if refusal, ok := AsRefusal(err); ok {
		return fmt.Sprintf("%s: %v", tokens[0], refusal)
	}

	c.log.WithError(err).WithField("command", tokens[0]).Error(
		"file system error; unmounting",
	)
	c.unmount()
	return fmt.Sprintf("logic error encountered: %v", err)
}

// Close unmounts the current image, if any.
func (c *Console) Close() error {
	return c.unmount()
}

type usageErr string

func (err usageErr) Error() string { return string(err) }

func arg(args []string, i int, what string) (string, error) {
	if len(args) <= i {
		return "", usageErr(what + " is not provided")
	}
	return args[i], nil
}

func (c *Console) unmount() error {
	if c.fs == nil {
		return nil
	}
	err := c.fs.Close()
	c.fs, c.image, c.path = nil, "", nil
	return err
}

func (c *Console) mount(args []string) (string, error) {
	image, err := arg(args, 0, "file name")
	if err != nil {
		return "", err
	}
	if err := c.unmount(); err != nil {
		c.log.WithError(err).Warn("unmounting previous image")
	}

	filesystem, err := fs.Mount(image, c.options)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Sprintf("file %s not found", image), nil
		}
		return fmt.Sprintf("file %s could not be mounted: %v", image, err), nil
	}
	c.fs, c.image, c.cwd, c.path = filesystem, image, filesystem.Root(), nil
	return "", nil
}

func (c *Console) umount([]string) (string, error) {
	if err := c.unmount(); err != nil {
		return fmt.Sprintf("could not unmount cleanly: %v", err), nil
	}
	return "", nil
}

func (c *Console) create(args []string) (string, error) {
	image, err := arg(args, 0, "file name")
	if err != nil {
		return "", err
	}
	sizeArg, err := arg(args, 1, "file size")
	if err != nil {
		return "", err
	}
	size, err := strconv.ParseInt(sizeArg, 10, 64)
	if err != nil {
		return "bad size description provided", nil
	}
	if Byte(size) < MinVolumeSize {
		return fmt.Sprintf(
			"required size is too small, minimal size is %d",
			MinVolumeSize,
		), nil
	}
	if Byte(size) > MaxVolumeSize {
		return fmt.Sprintf(
			"required size is too big, maximal size is %d",
			MaxVolumeSize,
		), nil
	}
	if err := fs.Create(image, Byte(size)); err != nil {
		return fmt.Sprintf("could not create file, reason: %v", err), nil
	}
	return image + " created", nil
}

func (c *Console) format(args []string) (string, error) {
	image, err := arg(args, 0, "file name")
	if err != nil {
		return "", err
	}
	if image == c.image {
		return "unmount the image before formatting it", nil
	}
	if err := fs.Format(image); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "file not found", nil
		}
		return fmt.Sprintf("could not format file, reason: %v", err), nil
	}
	return image + " formatted", nil
}

func (c *Console) cd(args []string) (string, error) {
	name, err := arg(args, 0, "directory name")
	if err != nil {
		return "", err
	}
	dir, err := c.fs.LookupDir(c.cwd, name)
	if errors.Is(err, NotFoundErr) || errors.Is(err, NotADirErr) {
		return "no such directory", nil
	}
	if err != nil {
		return "", err
	}

	c.cwd = dir
	switch name {
	case NameSelf:
	case NameParent:
		if len(c.path) > 0 {
			c.path = c.path[:len(c.path)-1]
		}
	default:
		c.path = append(c.path, name)
	}
	return "", nil
}

func (c *Console) ls([]string) (string, error) {
	entries, err := c.fs.Entries(c.cwd)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type == EntryTypeDir {
			lines = append(lines, "d: "+entry.Name)
		} else {
			lines = append(lines, "f: "+entry.Name)
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func (c *Console) mkdir(args []string) (string, error) {
	name, err := arg(args, 0, "directory name")
	if err != nil {
		return "", err
	}
	_, err = c.fs.AddDir(c.cwd, name)
	return "", err
}

func (c *Console) touch(args []string) (string, error) {
	name, err := arg(args, 0, "file name")
	if err != nil {
		return "", err
	}
	_, err = c.fs.AddFile(c.cwd, name)
	return "", err
}

func (c *Console) rm(args []string) (string, error) {
	recursive := len(args) > 0 && args[0] == "-r"
	if recursive {
		args = args[1:]
	}
	name, err := arg(args, 0, "name")
	if err != nil {
		return "", err
	}
	if recursive {
		return "", c.fs.RemoveDir(c.cwd, name)
	}
	err = c.fs.RemoveFile(c.cwd, name)
	if errors.Is(err, IsADirErr) {
		return fmt.Sprintf("%s is a directory, use rm -r", name), nil
	}
	return "", err
}

func (c *Console) cat(args []string) (string, error) {
	name, err := arg(args, 0, "file name")
	if err != nil {
		return "", err
	}
	f, err := c.fs.LookupFile(c.cwd, name)
	if err != nil {
		return "", err
	}
	r := file.NewReader(c.fs, f)
	defer r.Close()
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func (c *Console) append(args []string) (string, error) {
	name, err := arg(args, 0, "file name")
	if err != nil {
		return "", err
	}
	f, err := c.fs.LookupFile(c.cwd, name)
	if err != nil {
		return "", err
	}
	w := file.NewWriter(c.fs, f)
	defer w.Close()
	_, err = fmt.Fprintln(w, strings.Join(args[1:], " "))
	return "", err
}

func (c *Console) df([]string) (string, error) {
	sb := c.fs.Stat()
	return fmt.Sprintf(
		"inodes: %d free of %d\nblocks: %d free of %d (%d bytes each)",
		sb.FreeInodes,
		sb.TotalInodes,
		sb.FreeBlocks,
		sb.TotalBlocks,
		BlockSize,
	), nil
}

func (c *Console) fsck([]string) (string, error) {
	report := c.fs.Check()
	lines := []string{fmt.Sprintf(
		"%d directories, %d files, %d blocks in use",
		report.Dirs,
		report.Files,
		report.UsedBlocks,
	)}
	if report.Clean() {
		lines = append(lines, "clean")
	}
	lines = append(lines, report.Problems...)
	return strings.Join(lines, "\n"), nil
}
