// Package fs abstracts the file system operations of the local blob store
// so tests can inject I/O failures.
//
// Production code uses fs.Default, which delegates to the os package.
// Tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: 16})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// The interfaces take no context.Context. Local file operations cannot be
// interrupted at the syscall level; remote stores in blobstore accept one.
package fs
