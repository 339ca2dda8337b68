package xfile_test

import (
	"errors"
	"fmt"

	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

func ExampleSafeJoin() {
	p, err := xfile.SafeJoin("/var/log", "tenant-a/app.log")
	fmt.Println(p, err)

	_, err = xfile.SafeJoin("/var/log", "../etc/passwd")
	fmt.Println(errors.Is(err, xfile.ErrPathTraversal))
	// Output:
	// /var/log/tenant-a/app.log <nil>
	// true
}

func ExampleSanitizePath() {
	p, _ := xfile.SanitizePath("/var/./log/../log/app.log")
	fmt.Println(p)
	// Output: /var/log/app.log
}
