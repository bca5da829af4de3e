package types

// TestTargets lists the functions and files a prompt expects to work
type TestTargets struct {
	Functions []string `json:"functions" yaml:"functions"`
	Files     []string `json:"files" yaml:"files"`
}

// IsEmpty reports whether no targets were named
func (t *TestTargets) IsEmpty() bool {
	return len(t.Functions) == 0 && len(t.Files) == 0
}

// FileContent is the content of a target file, or the reason it could not be read
type FileContent struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Found reports whether the file was read
func (f *FileContent) Found() bool {
	return f.Error == ""
}

// FunctionContent is the located source of a target function
type FunctionContent struct {
	Name     string `json:"name" yaml:"name"`
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Content  string `json:"content,omitempty" yaml:"content,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Found reports whether the function source was located
func (f *FunctionContent) Found() bool {
	return f.Content != ""
}

// TestTargetsWithCode pairs targets with the code read for them
type TestTargetsWithCode struct {
	Targets          TestTargets       `json:"targets" yaml:"targets"`
	FileContents     []FileContent     `json:"file_contents" yaml:"file_contents"`
	FunctionContents []FunctionContent `json:"function_contents" yaml:"function_contents"`
}

// FoundFunctions counts the functions whose source was located
func (t *TestTargetsWithCode) FoundFunctions() int {
	n := 0
	for i := range t.FunctionContents {
		if t.FunctionContents[i].Found() {
			n++
		}
	}
	return n
}

// FoundFiles counts the files that were read without error
func (t *TestTargetsWithCode) FoundFiles() int {
	n := 0
	for i := range t.FileContents {
		if t.FileContents[i].Found() {
			n++
		}
	}
	return n
}
