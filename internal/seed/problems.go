package seed

import "algoryth/internal/domain/model"

// Problems is the starter problem set. Test case input is fed to the program on stdin.
func Problems() []model.Problem {
	return []model.Problem{
		{
			ID:         "p-1000",
			Title:      "Two Sum",
			Difficulty: model.DifficultyEasy,
			Tags:       []string{"Array", "Hash Table"},
			Statement: "Given an array of integers nums and an integer target, return the indices of the two numbers " +
				"such that they add up to target.\n\nThe first line holds n, the second line the n numbers and the " +
				"third line the target. Print the two indices separated by a space, smaller index first.",
			Constraints: []string{
				"2 <= n <= 10^4",
				"-10^9 <= nums[i] <= 10^9",
				"Exactly one valid answer exists.",
			},
			Examples: []model.Example{
				{Input: "4\n2 7 11 15\n9", Output: "0 1", Explanation: "nums[0] + nums[1] == 9"},
				{Input: "3\n3 2 4\n6", Output: "1 2"},
			},
			Hints: []string{
				"A brute force check of every pair is O(n^2). Can you do better?",
				"Store each number's index in a hash map and look up target - x as you go.",
			},
			TestCases: []model.TestCase{
				{Input: "4\n2 7 11 15\n9", ExpectedOutput: "0 1"},
				{Input: "3\n3 2 4\n6", ExpectedOutput: "1 2"},
				{Input: "2\n3 3\n6", ExpectedOutput: "0 1", IsHidden: true},
				{Input: "5\n-1 -2 -3 -4 -5\n-8", ExpectedOutput: "2 4", IsHidden: true},
			},
		},
		{
			ID:         "p-1001",
			Title:      "Valid Parentheses",
			Difficulty: model.DifficultyEasy,
			Tags:       []string{"String", "Stack"},
			Statement: "Given a string s containing just the characters '(', ')', '{', '}', '[' and ']', determine " +
				"whether the input string is valid.\n\nBrackets must be closed by the same type of bracket and in " +
				"the correct order. Print true or false.",
			Constraints: []string{
				"1 <= s.length <= 10^4",
				"s consists of parentheses only '()[]{}'.",
			},
			Examples: []model.Example{
				{Input: "()[]{}", Output: "true"},
				{Input: "(]", Output: "false"},
			},
			Hints: []string{
				"Push every opening bracket on a stack.",
				"A closing bracket must match the top of the stack.",
			},
			TestCases: []model.TestCase{
				{Input: "()", ExpectedOutput: "true"},
				{Input: "()[]{}", ExpectedOutput: "true"},
				{Input: "(]", ExpectedOutput: "false"},
				{Input: "([)]", ExpectedOutput: "false", IsHidden: true},
				{Input: "{[]}", ExpectedOutput: "true", IsHidden: true},
			},
		},
		{
			ID:         "p-2000",
			Title:      "Maximum Subarray",
			Difficulty: model.DifficultyMedium,
			Tags:       []string{"Array", "Dynamic Programming", "Divide and Conquer"},
			Statement: "Given an integer array nums, find the contiguous subarray with the largest sum and print " +
				"its sum.\n\nThe first line holds n and the second line the n numbers.",
			Constraints: []string{
				"1 <= n <= 10^5",
				"-10^4 <= nums[i] <= 10^4",
			},
			Examples: []model.Example{
				{Input: "9\n-2 1 -3 4 -1 2 1 -5 4", Output: "6", Explanation: "The subarray [4,-1,2,1] has the largest sum 6."},
				{Input: "1\n1", Output: "1"},
			},
			Hints: []string{
				"Kadane's algorithm keeps the best sum ending at the current index.",
			},
			TestCases: []model.TestCase{
				{Input: "9\n-2 1 -3 4 -1 2 1 -5 4", ExpectedOutput: "6"},
				{Input: "1\n1", ExpectedOutput: "1"},
				{Input: "5\n5 4 -1 7 8", ExpectedOutput: "23", IsHidden: true},
				{Input: "3\n-3 -1 -2", ExpectedOutput: "-1", IsHidden: true},
			},
		},
	}
}
