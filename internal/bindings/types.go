package bindings

// Error mirrors struct _virError. Only the leading fields are read; the rest
// exist so the layout matches the C definition.
type Error struct {
	Code    int32
	Domain  int32
	Message *byte
	Level   int32
	_       int32
	Conn    uintptr
	Dom     uintptr
	Str1    *byte
	Str2    *byte
	Str3    *byte
	Int1    int32
	Int2    int32
	Net     uintptr
}

// UUIDStringBuflen is VIR_UUID_STRING_BUFLEN.
const UUIDStringBuflen = 37

// Stream return codes shared by virStreamSend and virStreamRecv.
const (
	StreamError      = -1
	StreamWouldBlock = -2
)
