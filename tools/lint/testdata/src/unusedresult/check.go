package unusedresult

import (
	"errors"
	"fmt"
)

func checkRoot(root string) error {
	if root == "" {
		errors.New("empty root")          // want "result of errors.New call not used"
		fmt.Errorf("empty root %q", root) // want "result of fmt.Errorf call not used"
	}
	if root == "/" {
		return fmt.Errorf("refusing to snapshot %q", root)
	}
	return nil
}
