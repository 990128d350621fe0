//go:build !amd64 || noasm

package kernel

func pickImplementation() implementation {
	return portableImpl
}
