//go:build windows

package process

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"unsafe"

	gopsprocess "github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procFindWindowW        = user32.NewProc("FindWindowW")
	procGetWindowTextW     = user32.NewProc("GetWindowTextW")
	procVirtualAllocEx     = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx      = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread = kernel32.NewProc("CreateRemoteThread")
)

const processAccess = windows.PROCESS_CREATE_THREAD |
	windows.PROCESS_QUERY_INFORMATION |
	windows.PROCESS_VM_OPERATION |
	windows.PROCESS_VM_READ |
	windows.PROCESS_VM_WRITE |
	windows.SYNCHRONIZE

// Probe finds a top-level window by class and title using FindWindowW
// and opens the process that owns it.
func (o *SystemProber) Probe(class string, title string) (Target, bool, error) {
	classPtr, err := windows.UTF16PtrFromString(class)
	if err != nil {
		return nil, false, fmt.Errorf("failed to convert window class to utf-16 - %w", err)
	}

	var titlePtr *uint16
	if title != "" {
		titlePtr, err = windows.UTF16PtrFromString(title)
		if err != nil {
			return nil, false, fmt.Errorf("failed to convert window title to utf-16 - %w", err)
		}
	}

	hwnd, _, _ := procFindWindowW.Call(
		uintptr(unsafe.Pointer(classPtr)),
		uintptr(unsafe.Pointer(titlePtr)))
	if hwnd == 0 {
		return nil, false, nil
	}

	var pid uint32
	_, err = windows.GetWindowThreadProcessId(windows.HWND(hwnd), &pid)
	if err != nil {
		return nil, true, fmt.Errorf("failed to get process id of window - %w", err)
	}

	handle, err := windows.OpenProcess(processAccess, false, pid)
	if err != nil {
		return nil, true, fmt.Errorf("failed to open process %d - %w", pid, err)
	}

	target, err := newSystemTarget(handle, pid, windowText(hwnd), o.logger)
	if err != nil {
		_ = windows.CloseHandle(handle)
		return nil, true, err
	}

	if o.logger != nil {
		o.logger.Printf("attached to %s", target.info)
	}

	return target, true, nil
}

func windowText(hwnd uintptr) string {
	buf := make([]uint16, 256)

	n, _, _ := procGetWindowTextW.Call(
		hwnd,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)))

	return windows.UTF16ToString(buf[:n])
}

func newSystemTarget(handle windows.Handle, pid uint32, title string, logger *log.Logger) (*systemTarget, error) {
	proc, err := gopsprocess.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("failed to find process %d - %w", pid, err)
	}

	exePath, err := proc.Exe()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path of process %d - %w", pid, err)
	}

	info := Info{
		Title: title,
		PID:   pid,
	}

	err = readVersionInfo(exePath, &info)
	if err != nil {
		return nil, fmt.Errorf("failed to read version info of '%s' - %w", exePath, err)
	}

	return &systemTarget{
		info:   info,
		handle: handle,
		proc:   proc,
		logger: logger,
	}, nil
}

func readVersionInfo(exePath string, info *Info) error {
	size, err := windows.GetFileVersionInfoSize(exePath, nil)
	if err != nil {
		return fmt.Errorf("failed to get version info size - %w", err)
	}

	block := make([]byte, size)
	err = windows.GetFileVersionInfo(exePath, 0, size, unsafe.Pointer(&block[0]))
	if err != nil {
		return fmt.Errorf("failed to get version info - %w", err)
	}

	var fixed *windows.VS_FIXEDFILEINFO
	var fixedLen uint32
	err = windows.VerQueryValue(unsafe.Pointer(&block[0]), `\`, unsafe.Pointer(&fixed), &fixedLen)
	if err == nil && fixedLen > 0 {
		info.FileVersion = fmt.Sprintf("%d.%d.%d.%d",
			fixed.FileVersionMS>>16, fixed.FileVersionMS&0xffff,
			fixed.FileVersionLS>>16, fixed.FileVersionLS&0xffff)
	}

	var translation *[2]uint16
	var translationLen uint32
	err = windows.VerQueryValue(unsafe.Pointer(&block[0]), `\VarFileInfo\Translation`,
		unsafe.Pointer(&translation), &translationLen)
	if err != nil || translationLen < 4 {
		return nil
	}

	prefix := fmt.Sprintf(`\StringFileInfo\%04x%04x\`, translation[0], translation[1])

	info.ProductName = versionString(block, prefix+"ProductName")
	info.OriginalFilename = versionString(block, prefix+"OriginalFilename")

	// Some repacks replace the string version with a marker such as "GOTY".
	fileVersion := versionString(block, prefix+"FileVersion")
	if fileVersion != "" && !strings.ContainsAny(fileVersion, ", ") {
		info.FileVersion = fileVersion
	}

	return nil
}

func versionString(block []byte, subBlock string) string {
	var value *uint16
	var valueLen uint32

	err := windows.VerQueryValue(unsafe.Pointer(&block[0]), subBlock, unsafe.Pointer(&value), &valueLen)
	if err != nil || valueLen == 0 {
		return ""
	}

	return windows.UTF16PtrToString(value)
}

type systemTarget struct {
	info      Info
	handle    windows.Handle
	proc      *gopsprocess.Process
	logger    *log.Logger
	closeOnce sync.Once
	closeErr  error
}

func (o *systemTarget) Info() Info {
	return o.info
}

func (o *systemTarget) IsAlive() bool {
	running, err := o.proc.IsRunning()
	return err == nil && running
}

func (o *systemTarget) ReadMemory(address uint32, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, size)

	var n uintptr
	err := windows.ReadProcessMemory(o.handle, uintptr(address), &buf[0], uintptr(size), &n)
	if err != nil {
		return nil, o.wrap(fmt.Errorf("failed to read %d bytes at 0x%x - %w", size, address, err))
	}

	return buf[:n], nil
}

func (o *systemTarget) WriteMemory(address uint32, p []byte) error {
	if len(p) == 0 {
		return nil
	}

	var n uintptr
	err := windows.WriteProcessMemory(o.handle, uintptr(address), &p[0], uintptr(len(p)), &n)
	if err != nil {
		return o.wrap(fmt.Errorf("failed to write %d bytes at 0x%x - %w", len(p), address, err))
	}

	if int(n) != len(p) {
		return fmt.Errorf("short write at 0x%x - wrote %d of %d bytes", address, n, len(p))
	}

	if o.logger != nil {
		o.logger.Printf("wrote 0x%x at 0x%x", p, address)
	}

	return nil
}

func (o *systemTarget) AllocScratch(size int) (Scratch, error) {
	addr, _, err := procVirtualAllocEx.Call(
		uintptr(o.handle),
		0,
		uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE,
		windows.PAGE_EXECUTE_READWRITE)
	if addr == 0 {
		return nil, o.wrap(fmt.Errorf("failed to allocate %d bytes - %w", size, err))
	}

	return &systemScratch{
		target: o,
		addr:   uint32(addr),
		size:   size,
	}, nil
}

func (o *systemTarget) Execute(entry uint32) error {
	thread, _, err := procCreateRemoteThread.Call(
		uintptr(o.handle),
		0,
		0,
		uintptr(entry),
		0,
		0,
		0)
	if thread == 0 {
		return o.wrap(fmt.Errorf("failed to create remote thread at 0x%x - %w", entry, err))
	}
	defer windows.CloseHandle(windows.Handle(thread))

	event, err := windows.WaitForSingleObject(windows.Handle(thread), windows.INFINITE)
	if err != nil {
		return fmt.Errorf("failed to wait for remote thread - %w", err)
	}

	if event != windows.WAIT_OBJECT_0 {
		return fmt.Errorf("unexpected wait result for remote thread: 0x%x", event)
	}

	return nil
}

func (o *systemTarget) Close() error {
	o.closeOnce.Do(func() {
		o.closeErr = windows.CloseHandle(o.handle)
	})

	return o.closeErr
}

// wrap marks err with ErrExited when the process is gone.
func (o *systemTarget) wrap(err error) error {
	if !o.IsAlive() {
		return errors.Join(ErrExited, err)
	}

	return err
}

type systemScratch struct {
	target *systemTarget
	addr   uint32
	size   int
}

func (o *systemScratch) Address() uint32 {
	return o.addr
}

func (o *systemScratch) Size() int {
	return o.size
}

func (o *systemScratch) Free() error {
	ok, _, err := procVirtualFreeEx.Call(
		uintptr(o.target.handle),
		uintptr(o.addr),
		0,
		windows.MEM_RELEASE)
	if ok == 0 {
		return fmt.Errorf("failed to free scratch region at 0x%x - %w", o.addr, err)
	}

	return nil
}
