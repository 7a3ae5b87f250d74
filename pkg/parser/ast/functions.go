// Copyright 2024 the docete Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ast

// Names of the pattern-matching functions understood by the expression
// layer. The parser lowercases function names before lookup, so these are
// the canonical spellings.
const (
	Like             = "like"
	Ilike            = "ilike"
	Regexp           = "regexp"
	RLike            = "rlike"
	Split            = "split"
	RegexpReplace    = "regexp_replace"
	RegexpExtract    = "regexp_extract"
	RegexpExtractAll = "regexp_extract_all"
	RegexpInstr      = "regexp_instr"
	RegexpCount      = "regexp_count"
	RegexpSubstr     = "regexp_substr"
)
